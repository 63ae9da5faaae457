/*
Example command running the full navigation assistant: YOLO object
detection, monocular depth estimation, temporal tracking, LLM narration,
speech synthesis and a browser stream of the annotated frames.

Usage:

	go run main.go -m yolov8n.onnx -l coco_80_labels_list.txt -d midas_small.onnx -v walk.mp4
*/
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	visionvoice "github.com/visionvoice/go-visionvoice"
	"github.com/visionvoice/go-visionvoice/ani"
	"github.com/visionvoice/go-visionvoice/camera"
	"github.com/visionvoice/go-visionvoice/depth"
	"github.com/visionvoice/go-visionvoice/detect"
	"github.com/visionvoice/go-visionvoice/eventlog"
	"github.com/visionvoice/go-visionvoice/narrate"
	"github.com/visionvoice/go-visionvoice/server"
	"github.com/visionvoice/go-visionvoice/speech"
)

func main() {

	// read in cli flags
	modelFile := flag.String("m", "../data/yolov8n-640.onnx", "ONNX compiled YOLO model file")
	labelFile := flag.String("l", "../data/coco_80_labels_list.txt", "Text file containing model labels")
	depthFile := flag.String("d", "", "ONNX compiled MiDaS depth model file, depth disabled when empty")
	vidFile := flag.String("v", "", "Video file to run the assistant on instead of a camera")
	device := flag.Int("c", 0, "Camera device index to capture frames from")
	httpAddr := flag.String("a", "localhost:8080", "HTTP Address to run server on, format address:port")
	dbFile := flag.String("db", "events.db", "SQLite file to record risk events to, disabled when empty")
	voiceID := flag.String("voice", "", "Text to speech voice id, speech disabled when empty")
	fontFile := flag.String("font", "", "TTF font file for the guidance banner, Hershey font used when empty")
	zoneMargin := flag.Float64("zm", 0, "Margin to inflate the collision zone by, in normalised units")

	flag.Parse()

	log := logrus.WithField("component", "main")

	labels, err := visionvoice.LoadLabels(*labelFile)

	if err != nil {
		log.WithError(err).Fatal("failed to load model labels")
	}

	detector, err := detect.NewDNNDetector(*modelFile, labels, 0.35, 0.45, 640)

	if err != nil {
		log.WithError(err).Fatal("failed to load detection model")
	}

	defer detector.Close()

	engCfg := ani.DefaultConfig()
	engCfg.CollisionZoneMargin = *zoneMargin

	opts := visionvoice.Options{
		Engine:      engCfg,
		Detector:    detector,
		CaptionFont: *fontFile,
	}

	if *depthFile != "" {
		estimator, err := depth.NewEstimator(*depthFile, 256)

		if err != nil {
			log.WithError(err).Fatal("failed to load depth model")
		}

		defer estimator.Close()
		opts.Depth = estimator
	}

	// narration uses the LLM API configured via environment variables
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		cfg := narrate.DefaultConfig()
		cfg.APIKey = key
		opts.Narrator = narrate.New(cfg)
	}

	if *voiceID != "" {
		cfg := speech.DefaultConfig()
		cfg.VoiceID = *voiceID
		cfg.APIKey = os.Getenv("ELEVENLABS_API_KEY")
		opts.Synthesizer = speech.NewClient(cfg)
	}

	if *dbFile != "" {
		events, err := eventlog.Open(*dbFile)

		if err != nil {
			log.WithError(err).Fatal("failed to open event database")
		}

		defer events.Close()
		opts.Events = events

		log.WithField("session", events.SessionID()).Info("recording risk events")
	}

	srv := server.New(opts.Events)
	opts.Server = srv

	assistant, err := visionvoice.NewAssistant(opts)

	if err != nil {
		log.WithError(err).Fatal("failed to create assistant")
	}

	// open the frame source
	var source *camera.Source

	if *vidFile != "" {
		source, err = camera.OpenFile(*vidFile, true)
	} else {
		source, err = camera.OpenDevice(*device)
	}

	if err != nil {
		log.WithError(err).Fatal("failed to open frame source")
	}

	defer source.Close()

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithField("address", *httpAddr).Info("open the stream in a browser at /stream")

		if err := http.ListenAndServe(*httpAddr, srv.ServeMux()); err != nil {
			log.WithError(err).Error("http server stopped")
		}
	}()

	if err := assistant.Run(ctx, source); err != nil && ctx.Err() == nil {
		log.WithError(err).Fatal("assistant stopped")
	}
}
