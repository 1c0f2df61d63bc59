package bridge

import (
	"bufio"
	"context"
	"fmt"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	config "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Config"
	logger "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Logger"
)

// Service owns the serial port and pumps each line through the parser.
type Service struct {
	cfg    *config.BridgeConfig
	parser *Parser
	logger *logger.Logger
	port   serial.Port
}

// NewService creates a new serial bridge service.
func NewService(cfg *config.BridgeConfig, sink Sink, log *logger.Logger) *Service {
	return &Service{
		cfg:    cfg,
		parser: NewParser(cfg.DeviceID, cfg.ReaderID, cfg.PostInterval, sink, log, nil),
		logger: log.WithComponent("serial-bridge"),
	}
}

// Connect opens the configured serial port. When no port is configured
// and exactly one is present, that one is auto-selected.
func (s *Service) Connect() error {
	portName := s.cfg.SerialPort
	if portName == "" {
		detected, err := s.detectPort()
		if err != nil {
			return err
		}
		portName = detected
		s.logger.WithField("port", portName).Info("Auto-selected serial port")
	}

	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: s.cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	s.port = port

	s.logger.WithField("port", portName).Info("Serial port connected")

	// Give the ESP32 time to reset after the port opens.
	time.Sleep(2 * time.Second)
	return nil
}

func (s *Service) detectPort() (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("failed to enumerate serial ports: %w", err)
	}
	if len(ports) == 0 {
		return "", fmt.Errorf("no serial ports found")
	}
	if len(ports) > 1 {
		for _, p := range ports {
			s.logger.WithField("port", p.Name).Info("Available serial port")
		}
		return "", fmt.Errorf("multiple serial ports found, set SERIAL_PORT")
	}
	return ports[0].Name, nil
}

// Run reads the serial stream line by line until the context is
// cancelled or the port fails.
func (s *Service) Run(ctx context.Context) error {
	if s.port == nil {
		if err := s.Connect(); err != nil {
			return err
		}
	}
	defer s.port.Close()

	s.logger.Info("Listening for serial data")

	scanner := bufio.NewScanner(s.port)
	lines := make(chan string)
	errCh := make(chan error, 1)

	go func() {
		defer close(lines)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			errCh <- err
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return fmt.Errorf("serial read failed: %w", err)
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if line == "" {
				continue
			}
			s.parser.HandleLine(ctx, line)
		}
	}
}
