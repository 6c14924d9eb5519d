package multimodal

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	_ "image/png"

	"github.com/nikhilbhutani/docvision/internal/llm"
)

// DefaultChatPrompt is sent alongside every image to chat-capable models.
const DefaultChatPrompt = "What's in this image?"

// JPEGQuality matches the usual default of image libraries.
const JPEGQuality = 75

// DefaultMaxPixels caps width*height of an upload before it is decoded.
const DefaultMaxPixels = 89_478_485

var ErrImageTooLarge = errors.New("image too large")

// VisionService sends images to hosted OCR or vision chat models.
type VisionService struct {
	gateway llm.Gateway
	prompt  string
}

func NewVisionService(gw llm.Gateway, prompt string) *VisionService {
	if prompt == "" {
		prompt = DefaultChatPrompt
	}
	return &VisionService{gateway: gw, prompt: prompt}
}

func (v *VisionService) Prompt() string { return v.prompt }

// ExtractViaOCR returns the concatenated page markdown of the OCR response.
func (v *VisionService) ExtractViaOCR(ctx context.Context, img llm.Image, m llm.Model) (string, error) {
	resp, err := v.gateway.OCR(ctx, m, img)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// ExtractViaChat returns the model's reply to the fixed prompt.
func (v *VisionService) ExtractViaChat(ctx context.Context, img llm.Image, m llm.Model) (string, error) {
	resp, err := v.gateway.VisionChat(ctx, m, v.prompt, img)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// EncodeJPEG decodes a PNG or JPEG image and re-encodes it as JPEG.
// Transparent pixels are flattened onto white and metadata is dropped.
// Images above maxPixels are rejected from their header alone; a
// non-positive maxPixels means DefaultMaxPixels.
func EncodeJPEG(data []byte, maxPixels int) ([]byte, error) {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > int64(maxPixels) {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrImageTooLarge, cfg.Width, cfg.Height, maxPixels)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	flat := image.NewRGBA(bounds)
	draw.Draw(flat, bounds, image.White, image.Point{}, draw.Src)
	draw.Draw(flat, bounds, src, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// ImageFromJPEG wraps already encoded JPEG bytes for a provider call.
func ImageFromJPEG(jpg []byte) llm.Image {
	return llm.Image{
		MIMEType: "image/jpeg",
		Base64:   base64.StdEncoding.EncodeToString(jpg),
	}
}
