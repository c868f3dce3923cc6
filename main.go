package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"stereocam/config"
	"stereocam/device"
	"stereocam/notify"
	"stereocam/serve"
	"stereocam/util"
	"stereocam/video"
	"stereocam/video/process"
	"stereocam/video/sink"
)

var (
	configPath = flag.String("config", "stereocam.json", "Path to the JSON config file.")
	port       = flag.Int("port", 0, "Port to host the web frontend, overrides config.")
	uri        = flag.String("uri", "", "Capture URI (device index, V4L2 path, or video file), overrides config.")
)

func main() {
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := config.Load(ctx, *configPath); err != nil {
		log.Fatalf("Failed to load config %v: %v", *configPath, err)
	}
	cfg := config.Get()
	if *uri != "" {
		cfg.URI = *uri
	}
	if *port != 0 {
		cfg.HTTPPort = *port
	}

	req, err := cfg.Request()
	if err != nil {
		log.Fatalf("Bad stream request: %v", err)
	}

	cam := device.NewCamera(device.CameraOptions{
		URI:     cfg.URI,
		Request: req,
		IMU:     device.NewSyntheticIMU(),
		IMURate: cfg.IMURate,
		Depth:   cfg.Depth,
	})
	if err := cam.ConfigRequest(req); err != nil {
		log.Fatalf("Failed to configure stream request: %v", err)
	}
	cam.EnableImageInfo(true)
	cam.EnableMotionDatas(0)

	mjpegServer := sink.NewMJPEGServer()
	motionws := serve.NewMotionStreamer()

	// Console output mirrors the device callbacks. One mutex keeps lines
	// from interleaving across the device's goroutines.
	var outMu sync.Mutex
	cam.SetImgInfoCallback(func(info *device.ImageInfo) {
		outMu.Lock()
		defer outMu.Unlock()
		fmt.Printf("  [img_info] fid: %d, stamp: %d, expos: %d\n",
			info.FrameID, info.Timestamp, info.ExposureTime)
	})
	for _, s := range device.AllStreams {
		s := s
		cam.SetStreamCallback(s, func(d device.StreamData) {
			outMu.Lock()
			defer outMu.Unlock()
			fmt.Printf("  [%v] fid: %d\n", s, d.Img.FrameID)
		})
	}
	cam.SetMotionCallback(func(d device.MotionData) {
		motionws.Push(d)
		outMu.Lock()
		defer outMu.Unlock()
		if d.Flag == device.FlagAccel {
			fmt.Printf("[accel] stamp: %d, x: %v, y: %v, z: %v, temp: %v\n",
				d.Timestamp, d.Accel.X, d.Accel.Y, d.Accel.Z, d.Temperature)
		} else if d.Flag == device.FlagGyro {
			fmt.Printf("[gyro] stamp: %d, x: %v, y: %v, z: %v, temp: %v\n",
				d.Timestamp, d.Gyro.X, d.Gyro.Y, d.Gyro.Z, d.Temperature)
		}
	})

	fmt.Println()
	if err := cam.Open(); err != nil {
		log.Errorf("Device open failed: %v", err)
		fmt.Fprintln(os.Stderr, "Error: Open camera failed")
		os.Exit(1)
	}
	defer cam.Close()
	fmt.Println("Open device success")
	fmt.Println()
	fmt.Println("Press ESC/Q to terminate")

	// The recording pipeline needs ffmpeg; without it, run display only.
	var rec *video.Recorder
	var motion *process.Motion
	notifier := &notify.Notifier{
		HoursStart: cfg.NotificationHoursStart,
		HoursEnd:   cfg.NotificationHoursEnd,
	}
	metaws := serve.NewMetaUpdater()
	notifier.Listeners = append(notifier.Listeners, metaws)

	var fs *video.Filesystem
	if _, err := util.LocateFFmpeg(); err != nil {
		log.Warnf("ffmpeg not found, clip recording disabled: %v", err)
	} else {
		fs, err = video.NewFilesystem(video.FilesystemOptions{
			BasePath: cfg.RecordPath,
			MaxSize:  cfg.FilesystemMaxSize,
		})
		if err != nil {
			log.Fatalf("Failed to create clip filesystem: %v", err)
		}
		fs.Listeners = append(fs.Listeners, metaws)

		vp := &video.VideoSinkProducer{
			FFmpegOptions: sink.FFmpegOptions{
				Size:       req.StreamMode.EyeSize(),
				FPS:        req.Framerate,
				BufferTime: time.Duration(cfg.BufferTimeSec) * time.Second,
			},
			Filesystem:     fs,
			VThumbProducer: process.NewVThumbProducer(),
			Listeners:      []video.RecordListener{notifier},
		}
		rec = video.NewRecorder(vp, &video.RecorderOptions{
			BufferTime:    time.Duration(cfg.BufferTimeSec) * time.Second,
			RecordTime:    time.Duration(cfg.RecordTimeSec) * time.Second,
			MaxRecordTime: time.Duration(cfg.MaxRecordTimeSec) * time.Second,
		})
		defer rec.Close()

		motion = process.NewMotion(mjpegServer, cfg.MotionThresh)
		motion.Trigger = rec
	}

	mux := http.NewServeMux()
	mux.Handle("/mjpeg", mjpegServer)
	mux.Handle("/eventsws", metaws)
	mux.Handle("/motionws", motionws)
	mux.Handle("/metrics", promhttp.Handler())
	serve.RegisterPprof(mux)
	if fs != nil {
		mux.Handle("/trigger", rec)
		mux.Handle("/events", &serve.MetaServer{FS: fs})
		mux.Handle("/video", serve.NewVideoServer(fs))
		mux.Handle("/thumb", serve.NewThumbServer(fs))
		mux.Handle("/vthumb", serve.NewVThumbServer(fs))
		mux.Handle("/delete", &serve.DeleteServer{FS: fs})
	}
	if cfg.MySQLDSN != "" {
		db, err := gorm.Open(mysql.Open(cfg.MySQLDSN), &gorm.Config{})
		if err != nil {
			log.Errorf("Failed to connect to database, push notifications disabled: %v", err)
		} else {
			wp, err := notify.NewWebPush(cfg.WebPushSubscriber, db)
			if err != nil {
				log.Errorf("Failed to initialize web push: %v", err)
			} else {
				wp.RegisterHandlers(mux)
				notifier.Listeners = append(notifier.Listeners, wp)
			}
		}
	}
	mux.Handle("/", http.FileServer(http.Dir("./web")))

	go func() {
		log.Infof("Hosting web frontend on port %d", cfg.HTTPPort)
		h := handlers.CombinedLoggingHandler(os.Stdout, mux)
		log.Error(http.ListenAndServe(fmt.Sprintf(":%d", cfg.HTTPPort), h))
	}()

	quit := util.NewEvent()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Infof("Caught signal %v", sig)
		quit.Notify()
	}()

	windows := make(map[device.Stream]*sink.Window)
	streams := make(map[device.Stream]*sink.MJPEGStream)
	var pollWindow *sink.Window
	for _, s := range device.AllStreams {
		if !cam.Supports(s) {
			continue
		}
		w := sink.NewWindow(s.String())
		defer w.Close()
		windows[s] = w
		if pollWindow == nil {
			pollWindow = w
		}
		streams[s] = mjpegServer.NewStream(s.String())
	}
	if pollWindow == nil {
		log.Fatalf("Request %+v makes no streams available", req)
	}

	overlay := process.NewOverlay()
	counter := util.NewCounter()
	for !quit.HasBeenNotified() {
		cam.WaitForStreams()
		counter.Update()

		for _, s := range device.AllStreams {
			if !cam.Supports(s) {
				continue
			}
			d := cam.GetStreamData(s)
			if d.Img == nil {
				continue
			}

			m := &d.Img.Mat
			if s == device.StreamLeftColor {
				// Motion detection and the recorded clip must see the
				// scene itself; the diagnostic text redraws every frame
				// and would read as permanent foreground.
				if motion != nil {
					motion.Process(*m)
				}
				if rec != nil {
					rec.Put(*d.Img)
				}
			}
			overlay.DrawSize(m, process.TopLeft)
			overlay.DrawStreamData(m, d, process.TopRight)
			if s == device.StreamLeftColor {
				overlay.DrawText(m, fmt.Sprintf("fps: %.1f", counter.FPS()), process.BottomRight, 0)
			}
			streams[s].Put(*m)
			windows[s].Show(*m)
			d.Img.Release()
		}

		key := pollWindow.PollKey()
		if key == 27 || key == 'q' || key == 'Q' {
			break
		}
	}
}
