package bridge

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	logger "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Logger"
	api_models "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Models/api"
)

// Sink receives the structured records the parser extracts from the
// serial stream.
type Sink interface {
	PostReading(ctx context.Context, req api_models.CreateReadingRequest) error
	PostScanEvent(ctx context.Context, req api_models.CreateScanEventRequest) error
}

var (
	temperatureRe = regexp.MustCompile(`Temperature:\s+([\d.]+)\s+°C`)
	humidityRe    = regexp.MustCompile(`Humidity:\s+([\d.]+)\s+%`)
	avgBPMRe      = regexp.MustCompile(`Avg BPM:\s+(\d+)`)
)

const (
	rfidDetectedMarker = ">>> RFID Card Detected! UID:"
	switchUserMarker   = "New card detected! Switching user..."
)

// Parser is a single-threaded stateful line scanner over the ESP32's
// noisy serial output. It accumulates sensor fields for the currently
// scanned tag and emits a reading at most once per postInterval, with
// whatever fields are populated at that point. A tag detection opens a
// full debounce window, so the fields printed right after a scan go out
// together in the first emission instead of one by one.
type Parser struct {
	deviceID     string
	readerID     string
	postInterval time.Duration
	now          func() time.Time
	sink         Sink
	logger       *logger.Logger

	currentTag  string
	temperature *float64
	humidity    *float64
	heartRate   *int
	lastEmit    time.Time
}

// NewParser creates a parser posting to sink. now is injectable for tests.
func NewParser(deviceID, readerID string, postInterval time.Duration, sink Sink, log *logger.Logger, now func() time.Time) *Parser {
	if now == nil {
		now = time.Now
	}
	return &Parser{
		deviceID:     deviceID,
		readerID:     readerID,
		postInterval: postInterval,
		now:          now,
		sink:         sink,
		logger:       log.WithComponent("serial-parser"),
	}
}

// HandleLine consumes one line of serial output. First match wins;
// unrecognized lines are ignored. After every line the debounced emit
// policy is evaluated.
func (p *Parser) HandleLine(ctx context.Context, line string) {
	line = strings.TrimSpace(line)

	switch {
	case strings.Contains(line, rfidDetectedMarker):
		// Format: ">>> RFID Card Detected! UID:  04 3A 2B 1C"
		uidPart := line[strings.LastIndex(line, "UID:")+len("UID:"):]
		uid := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(uidPart), " ", ""))
		p.handleTagDetected(ctx, uid)

	case strings.Contains(line, switchUserMarker):
		p.logger.Info("User switch detected, waiting for new RFID UID")
		p.currentTag = ""
		p.resetSensorData()

	case temperatureRe.MatchString(line):
		if m := temperatureRe.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				p.temperature = &v
			}
		}

	case humidityRe.MatchString(line):
		if m := humidityRe.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				p.humidity = &v
			}
		}

	case avgBPMRe.MatchString(line):
		if m := avgBPMRe.FindStringSubmatch(line); m != nil {
			if v, err := strconv.Atoi(m[1]); err == nil {
				p.heartRate = &v
			}
		}
	}

	p.checkAndPostSensorData(ctx)
}

func (p *Parser) handleTagDetected(ctx context.Context, uid string) {
	p.logger.WithField("rfid_tag", uid).Info("RFID detected")
	p.currentTag = uid
	p.resetSensorData()
	// Restart the window so the burst of sensor lines that follows a
	// scan accumulates before the first post.
	p.lastEmit = p.now()

	req := api_models.CreateScanEventRequest{
		RFIDTag:  uid,
		ReaderID: p.readerID,
	}
	if err := p.sink.PostScanEvent(ctx, req); err != nil {
		p.logger.ErrorWithError(err, "Failed to post RFID scan event")
	}
}

func (p *Parser) resetSensorData() {
	p.temperature = nil
	p.humidity = nil
	p.heartRate = nil
}

// checkAndPostSensorData posts a reading when a tag is active, at least
// one sensor field is populated, and the debounce interval has elapsed.
func (p *Parser) checkAndPostSensorData(ctx context.Context) {
	if p.currentTag == "" {
		return
	}
	if p.now().Sub(p.lastEmit) < p.postInterval {
		return
	}
	if p.temperature == nil && p.humidity == nil && p.heartRate == nil {
		return
	}

	req := api_models.CreateReadingRequest{
		RFIDTag:     p.currentTag,
		Temperature: p.temperature,
		Humidity:    p.humidity,
		HeartRate:   p.heartRate,
		DeviceID:    p.deviceID,
	}
	if err := p.sink.PostReading(ctx, req); err != nil {
		p.logger.ErrorWithError(err, "Failed to post sensor reading")
	}
	// Debounce ticks even on a failed post so a dead API is not hammered
	// on every subsequent line.
	p.lastEmit = p.now()
}
