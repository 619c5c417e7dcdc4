package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// textDetector is the part of the Rekognition client the engine uses.
type textDetector interface {
	DetectText(ctx context.Context, params *rekognition.DetectTextInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectTextOutput, error)
}

// rekognitionEngine sends images to Amazon Rekognition DetectText.
//
// Rekognition has no segmentation modes. SetMode is recorded and otherwise
// ignored, so every attempt in a recognition sequence sees the same answer
// and the first one is kept.
type rekognitionEngine struct {
	client textDetector
	mode   SegMode
}

// NewRekognitionEngine creates an engine using the default AWS credential
// chain (environment, shared config, instance role).
func NewRekognitionEngine(ctx context.Context, opts Options) (Engine, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.AWSRegion != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.AWSRegion))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load AWS config: %v", ErrEngineUnavailable, err)
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("%w: no AWS region configured", ErrEngineUnavailable)
	}

	return newRekognitionEngine(rekognition.NewFromConfig(cfg)), nil
}

func newRekognitionEngine(client textDetector) *rekognitionEngine {
	return &rekognitionEngine{client: client, mode: ModeSingleLine}
}

func (e *rekognitionEngine) SetMode(mode SegMode) error {
	e.mode = mode
	return nil
}

// Recognize joins the detected LINE texts with spaces and returns their mean
// confidence. WORD detections are ignored since they repeat the lines.
func (e *rekognitionEngine) Recognize(ctx context.Context, image []byte) (string, float64, error) {
	out, err := e.client.DetectText(ctx, &rekognition.DetectTextInput{
		Image: &types.Image{Bytes: image},
	})
	if err != nil {
		return "", 0, fmt.Errorf("rekognition DetectText failed: %w", err)
	}

	var lines []string
	var sum float64
	for _, detection := range out.TextDetections {
		if detection.Type != types.TextTypesLine {
			continue
		}
		text := strings.TrimSpace(aws.ToString(detection.DetectedText))
		if text == "" {
			continue
		}
		lines = append(lines, text)
		sum += float64(aws.ToFloat32(detection.Confidence))
	}
	if len(lines) == 0 {
		return "", 0, nil
	}
	return strings.Join(lines, " "), sum / float64(len(lines)), nil
}

func (e *rekognitionEngine) Version() string {
	return "aws-rekognition"
}

func (e *rekognitionEngine) Close() error {
	return nil
}
