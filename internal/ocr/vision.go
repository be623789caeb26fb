package ocr

import (
	"context"
	"fmt"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
)

// GoogleVision implements the TextDetector interface using the Google
// Cloud Vision document text detection API
type GoogleVision struct {
	client *vision.ImageAnnotatorClient
}

// NewGoogleVision creates a new GoogleVision detector. Credentials are
// resolved from the environment (GOOGLE_APPLICATION_CREDENTIALS or
// metadata-server defaults).
func NewGoogleVision(ctx context.Context) (*GoogleVision, error) {
	client, err := vision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating vision client: %w", err)
	}

	return &GoogleVision{client: client}, nil
}

// DetectText extracts text from an image using document text detection.
// The bytes are sent exactly as uploaded; Vision sniffs the format
// itself and rejects non-images on its side.
func (g *GoogleVision) DetectText(ctx context.Context, image []byte) (string, error) {
	resp, err := g.client.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: image},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("annotating image: %w", err)
	}

	responses := resp.GetResponses()
	if len(responses) == 0 {
		return "", fmt.Errorf("empty annotation response")
	}

	return documentText(responses[0])
}

// documentText pulls the detected text out of a single annotation
// response. The service embeds per-image failures in the response
// body rather than the RPC error, so that field is checked first.
func documentText(res *visionpb.AnnotateImageResponse) (string, error) {
	if resErr := res.GetError(); resErr != nil {
		return "", fmt.Errorf("vision service error: %s", resErr.GetMessage())
	}

	// No text found in the image
	return res.GetFullTextAnnotation().GetText(), nil
}

// Close closes the Vision client
func (g *GoogleVision) Close() error {
	return g.client.Close()
}
