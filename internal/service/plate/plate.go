// Package plate turns an uploaded camera frame into a plate event.
package plate

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log"
	"strings"
	"time"
	"unicode"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"smartattendance/backend/internal/entity"
	"smartattendance/backend/internal/service/engine"
	"smartattendance/backend/internal/service/snapshot"
)

// NoPlate is reported when recognition finds no text.
const NoPlate = "-"

// ErrRecognition matches every failure of the text recognition capability.
var ErrRecognition = errors.New("text recognition failed")

// RecognitionError keeps the recognizer's own error reachable while
// errors.Is(err, ErrRecognition) holds.
type RecognitionError struct {
	Err error
}

func (e *RecognitionError) Error() string {
	return ErrRecognition.Error() + ": " + e.Err.Error()
}

func (e *RecognitionError) Unwrap() error {
	return e.Err
}

func (e *RecognitionError) Is(target error) bool {
	return target == ErrRecognition
}

// Recognizer extracts the text shown in an image.
type Recognizer interface {
	RecognizeText(ctx context.Context, img image.Image) (string, error)
}

// Processor applies an attendance event.
type Processor interface {
	Process(ctx context.Context, ev engine.Event) (engine.Result, error)
}

type Result struct {
	snapshot.LastResult
	Attendance engine.Result `json:"attendance"`
}

type Service struct {
	log        *log.Logger
	recognizer Recognizer
	processor  Processor
	ring       *snapshot.Ring
	method     string
	maxWidth   int

	// Now is the event clock.
	Now func() time.Time
}

func NewService(log *log.Logger, recognizer Recognizer, processor Processor, ring *snapshot.Ring, method string, maxWidth int) *Service {
	return &Service{
		log:        log,
		recognizer: recognizer,
		processor:  processor,
		ring:       ring,
		method:     method,
		maxWidth:   maxWidth,
		Now:        time.Now,
	}
}

// Ingest decodes raw, reads the plate and records attendance for it.
func (s *Service) Ingest(ctx context.Context, raw []byte) (Result, error) {
	img, err := Decode(raw)
	if err != nil {
		return Result{}, err
	}
	gray := Preprocess(img, s.maxWidth)

	text, err := s.recognizer.RecognizeText(ctx, gray)
	if err != nil {
		return Result{}, &RecognitionError{Err: err}
	}

	plate := Normalize(text)
	now := s.Now().Format(engine.TimestampLayout)
	last := snapshot.LastResult{Plate: plate, Time: now, Method: s.method}

	// Operators see the frame as captured, not the recognizer input.
	var frame bytes.Buffer
	if err := png.Encode(&frame, img); err != nil {
		s.log.Printf("encoding snapshot: %v", err)
	}
	s.ring.Record(last, snapshot.Snapshot{Time: now, Plate: plate, Image: frame.Bytes()})

	res := Result{LastResult: last}
	if plate == NoPlate {
		at, _ := engine.ParseTimestamp(now)
		res.Attendance = engine.Result{
			Outcome:  engine.OutcomeSkipped,
			Modality: entity.ModalityPlate,
			Key:      plate,
			Date:     at.Format(engine.DateLayout),
			Time:     at.Format(engine.ClockLayout),
		}
		s.log.Println("no plate text recognized, nothing saved")
		return res, nil
	}

	res.Attendance, err = s.processor.Process(ctx, engine.Event{
		Modality:  entity.ModalityPlate,
		Key:       plate,
		Timestamp: now,
	})
	return res, err
}

// Decode reads any registered image format.
func Decode(raw []byte) (image.Image, error) {
	if len(raw) == 0 {
		return nil, errors.Wrap(engine.ErrMalformedInput, "empty image")
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrapf(engine.ErrMalformedInput, "decode failed: %v", err)
	}

	return img, nil
}

// Preprocess converts img to grayscale, shrinking it to maxWidth when it
// is wider. maxWidth <= 0 keeps the original size.
func Preprocess(img image.Image, maxWidth int) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if maxWidth > 0 && w > maxWidth {
		h = h * maxWidth / w
		if h == 0 {
			h = 1
		}
		w = maxWidth
		dst := image.NewGray(image.Rect(0, 0, w, h))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		return dst
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Normalize removes all whitespace from text and upper-cases it.
func Normalize(text string) string {
	plate := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, text)

	if plate == "" {
		return NoPlate
	}
	return plate
}
