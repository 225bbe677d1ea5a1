package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"inkwell/internal/domain"
	"inkwell/internal/provider"
	"inkwell/internal/storage"
)

// Resolution is a supported output size for image synthesis.
type Resolution struct {
	Width  int
	Height int
}

const defaultResolution = "1024x1024"

var resolutionMap = map[string]Resolution{
	"1024x1024": {Width: 1024, Height: 1024},
	"512x512":   {Width: 512, Height: 512},
	"768x768":   {Width: 768, Height: 768},
	"1024x768":  {Width: 1024, Height: 768},
	"768x1024":  {Width: 768, Height: 1024},
}

// ResolveResolution maps a requested resolution onto the fixed set,
// falling back to the default for unknown values.
func ResolveResolution(value string) Resolution {
	if r, ok := resolutionMap[value]; ok {
		return r
	}
	return resolutionMap[defaultResolution]
}

type ImageRequest struct {
	OwnerID    string
	Prompt     string
	Resolution string
}

type ImageResult struct {
	Message string
	Image   *domain.Image
	Warning Code
}

// ImagePipeline is the image synthesis variant: same stage sequence,
// different provider and output shape.
type ImagePipeline struct {
	Images provider.ImageGenerator
	Blobs  storage.BlobStore
	Repo   interface {
		InsertImage(ctx context.Context, img domain.Image) error
	}
	Logger *zap.Logger
	Now    func() time.Time
	NewID  func() string
}

func NewImagePipeline(images provider.ImageGenerator, blobs storage.BlobStore, r interface {
	InsertImage(ctx context.Context, img domain.Image) error
}, logger *zap.Logger) *ImagePipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImagePipeline{
		Images: images,
		Blobs:  blobs,
		Repo:   r,
		Logger: logger,
		Now:    time.Now,
		NewID:  uuid.NewString,
	}
}

func (p *ImagePipeline) Run(ctx context.Context, req ImageRequest) (ImageResult, *Error) {
	log := p.Logger.With(zap.String("user_id", req.OwnerID))

	if strings.TrimSpace(req.OwnerID) == "" {
		return ImageResult{}, failed(CodeUnauthorized, StageValidating, "authentication required")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return ImageResult{}, failed(CodeEmptyContent, StageValidating, "prompt is required")
	}
	res := ResolveResolution(req.Resolution)

	data, err := p.Images.GenerateImage(ctx, req.Prompt, res.Width, res.Height)
	if err != nil {
		outcome := provider.ClassifyError(0, err)
		if perr := p.checkImageOutcome(log, outcome); perr != nil {
			return ImageResult{}, perr
		}
	}
	if len(data) == 0 {
		return ImageResult{}, failed(CodeEmptyOutput, StageInvoking, "the provider produced no image")
	}

	id := p.NewID()
	url, err := p.Blobs.Save(context.WithoutCancel(ctx), id+".png", data)
	if err != nil {
		log.Error("storing image blob failed", zap.Error(err))
		return ImageResult{}, failed(CodePersistenceError, StagePersisting, "image could not be stored")
	}

	img := domain.Image{
		ID:        id,
		UserID:    req.OwnerID,
		Prompt:    req.Prompt,
		ImageURL:  url,
		CreatedAt: p.Now().UTC().Format(time.RFC3339),
	}
	result := ImageResult{Message: "Image generated successfully", Image: &img}

	if err := p.Repo.InsertImage(context.WithoutCancel(ctx), img); err != nil {
		log.Error("persisting image record failed", zap.Error(err))
		result.Warning = CodePersistenceError
	}
	return result, nil
}

func (p *ImagePipeline) checkImageOutcome(log *zap.Logger, outcome provider.Outcome) *Error {
	switch outcome.Kind {
	case provider.KindSuccess, provider.KindEmptyOutput:
		return failed(CodeEmptyOutput, StageInvoking, "the provider produced no image")
	case provider.KindQuotaExceeded:
		log.Warn("image provider quota exceeded", zap.String("detail", outcome.Detail))
		return failed(CodeQuotaExceeded, StageInvoking, "generation quota exceeded, try again later")
	default:
		log.Error("image provider call failed", zap.String("detail", outcome.Detail))
		return failed(CodeProviderError, StageInvoking, "image generation failed")
	}
}
