package core

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"

	"github.com/jo-hoe/gobooth/internal/backend/database"
	"github.com/jo-hoe/gobooth/internal/backend/persistence"
	"github.com/jo-hoe/gobooth/internal/backend/storage"
	"github.com/jo-hoe/gobooth/internal/booth"
	"github.com/jo-hoe/gobooth/internal/booth/camera"
	"github.com/jo-hoe/gobooth/internal/booth/compositor"
	"github.com/jo-hoe/gobooth/internal/booth/sequencer"
)

type CoreService struct {
	config     *ServiceConfig
	photoStore database.PhotoStore
	blobStore  storage.BlobStore
	gateway    *persistence.Gateway
	controller *booth.Controller
}

func NewCoreService(config *ServiceConfig) *CoreService {
	photoStore, err := database.NewPhotoStore(config.Database.Type, config.Database.ConnectionString)
	if err != nil {
		slog.Error("failed to initialize photo store", "error", err)
		panic(err)
	}
	slog.Info("photo store initialized successfully", "type", config.Database.Type)

	blobStore, err := storage.NewBlobStore(config.Storage.Type, config.Storage.Address)
	if err != nil {
		slog.Error("failed to initialize blob store", "error", err)
		panic(err)
	}
	slog.Info("blob store initialized successfully", "type", config.Storage.Type)

	gateway := persistence.NewGateway(blobStore, photoStore)
	controller := booth.NewController(
		newCameraSource(config.Camera),
		compositor.New(),
		sequencer.New(sequencer.Config{
			CountdownFrom: config.Capture.CountdownFrom,
			Tick:          config.Capture.Tick.Std(),
			Pause:         config.Capture.Pause.Std(),
		}),
		gateway,
	)

	return &CoreService{
		config:     config,
		photoStore: photoStore,
		blobStore:  blobStore,
		gateway:    gateway,
		controller: controller,
	}
}

func (service *CoreService) Gateway() *persistence.Gateway {
	return service.gateway
}

func (service *CoreService) Controller() *booth.Controller {
	return service.controller
}

func (service *CoreService) ThumbnailWidth() int {
	return service.config.ThumbnailWidth
}

func (service *CoreService) Close() error {
	if err := service.controller.Close(); err != nil {
		slog.Warn("failed to close booth controller", "error", err)
	}
	if err := service.blobStore.Close(); err != nil {
		slog.Warn("failed to close blob store", "error", err)
	}
	return service.photoStore.Close()
}

func newCameraSource(config Camera) camera.Source {
	switch config.Type {
	case "fake":
		return camera.NewFakeSource(placeholderFrame(), 640, 480)
	default:
		return camera.NewMJPEGSource(camera.Config{
			StreamURL:         config.StreamURL,
			OpenAttempts:      config.OpenAttempts,
			AttemptInterval:   config.AttemptInterval.Std(),
			FirstFrameTimeout: config.LoadTimeout.Std(),
		})
	}
}

// placeholderFrame renders the neutral gray frame the fake camera serves when
// the service runs without hardware.
func placeholderFrame() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.RGBA{96, 96, 96, 255}}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(fmt.Sprintf("failed to encode placeholder frame: %v", err))
	}
	return buf.Bytes()
}
