package system

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/KevinKickass/OpenRadarCore/internal/api/rest"
	"github.com/KevinKickass/OpenRadarCore/internal/api/websocket"
	"github.com/KevinKickass/OpenRadarCore/internal/config"
	"github.com/KevinKickass/OpenRadarCore/internal/hwsim"
	"github.com/KevinKickass/OpenRadarCore/internal/interfaces"
	"github.com/KevinKickass/OpenRadarCore/internal/nats"
	"github.com/KevinKickass/OpenRadarCore/internal/presets"
	"github.com/KevinKickass/OpenRadarCore/radarapi"
)

type LifecycleManager struct {
	config       *config.Config
	logger       *zap.Logger
	presetLoader *presets.Loader

	sensors   map[int32]*radarapi.Handle
	observers map[int32]*sensorObserver

	wsHub      *websocket.Hub
	publisher  *nats.Publisher
	restServer *rest.Server

	stateMu      sync.RWMutex
	currentState SystemState
	lastError    string

	listenersMu     sync.RWMutex
	statusListeners []chan SystemStatus

	pumpWg       sync.WaitGroup
	shutdownChan chan struct{}
	shutdownOnce sync.Once
}

func NewLifecycleManager(cfg *config.Config, logger *zap.Logger) (*LifecycleManager, error) {
	presetLoader, err := presets.NewLoader(cfg.Presets.SearchPaths)
	if err != nil {
		return nil, fmt.Errorf("failed to create preset loader: %w", err)
	}

	return &LifecycleManager{
		config:          cfg,
		logger:          logger,
		presetLoader:    presetLoader,
		sensors:         make(map[int32]*radarapi.Handle),
		observers:       make(map[int32]*sensorObserver),
		wsHub:           websocket.NewHub(logger.Named("websocket")),
		publisher:       nats.NewPublisher(cfg.NATS.SubjectPrefix, logger.Named("nats")),
		currentState:    StateInitializing,
		shutdownChan:    make(chan struct{}),
		statusListeners: make([]chan SystemStatus, 0),
	}, nil
}

// Start brings the whole system up: the driver module, one sensor per
// configured chip id, NATS and the API servers.
func (lm *LifecycleManager) Start() error {
	lm.logger.Info("Starting OpenRadarCore")

	lm.setState(StateInitializing)
	lm.broadcastStatus()

	if rc := radarapi.Init(hwsim.Factory(nil, lm.logger.Named("driver"))); rc != radarapi.RCOK {
		err := fmt.Errorf("driver module init failed: %w", rc)
		lm.setError(err)
		return err
	}

	if err := lm.attachSensors(); err != nil {
		lm.setError(err)
		return err
	}

	go lm.wsHub.Run()
	lm.startStatusPump()

	if lm.config.NATS.Enabled {
		if err := lm.publisher.Connect(lm.config.NATS.URL); err != nil {
			// NATS is optional; the system runs without it.
			lm.logger.Warn("NATS unavailable, continuing without it", zap.Error(err))
		} else {
			lm.startBurstPumps()
		}
	}

	if err := lm.startRESTServer(); err != nil {
		lm.setError(fmt.Errorf("failed to start REST API: %w", err))
		return err
	}

	lm.setState(StateRunning)
	lm.broadcastStatus()

	lm.logger.Info("System started successfully",
		zap.Int("http_port", lm.config.Server.HTTPPort),
		zap.Int("sensors", len(lm.sensors)),
		zap.Bool("nats_enabled", lm.config.NATS.Enabled))

	return nil
}

// attachSensors creates a handle per configured chip id and applies the
// configured country code, log level and FIFO mode.
func (lm *LifecycleManager) attachSensors() error {
	for _, id := range lm.config.Sensor.ChipIDs {
		h := radarapi.Create(id)
		if h == nil {
			return fmt.Errorf("failed to create sensor %d", id)
		}
		sensor := h.Sensor()

		if cc := lm.config.Sensor.CountryCode; cc != "" {
			if err := sensor.SetCountryCode(cc); err != nil {
				return fmt.Errorf("sensor %d: country code %q: %w", id, cc, err)
			}
		}
		if level, err := parseLogLevel(lm.config.Sensor.LogLevel); err != nil {
			return fmt.Errorf("sensor %d: %w", id, err)
		} else if err := sensor.SetLogLevel(level); err != nil {
			return fmt.Errorf("sensor %d: log level: %w", id, err)
		}
		if mode, err := parseFifoMode(lm.config.Sensor.FifoMode); err != nil {
			return fmt.Errorf("sensor %d: %w", id, err)
		} else if err := sensor.SetFifoMode(mode); err != nil {
			return fmt.Errorf("sensor %d: fifo mode: %w", id, err)
		}

		obs := &sensorObserver{
			id:        id,
			sensor:    sensor,
			wsHub:     lm.wsHub,
			publisher: lm.publisher,
		}
		if err := sensor.AddObserver(obs); err != nil {
			return fmt.Errorf("sensor %d: add observer: %w", id, err)
		}

		lm.sensors[id] = h
		lm.observers[id] = obs
		lm.logger.Info("Sensor attached", zap.Int32("sensor_id", id))
	}
	return nil
}

// startStatusPump mirrors lifecycle state changes onto the WebSocket
// hub as system_status frames.
func (lm *LifecycleManager) startStatusPump() {
	ch := lm.SubscribeStatus()
	lm.pumpWg.Add(1)
	go func() {
		defer lm.pumpWg.Done()
		defer lm.UnsubscribeStatus(ch)
		for {
			select {
			case <-lm.shutdownChan:
				return
			case status := <-ch:
				lm.wsHub.Broadcast(websocket.NewSystemStatusMessage(
					status.State.String(), status.Timestamp, status.Error))
			}
		}
	}()
}

// startBurstPumps forwards burst frames to NATS. The pumps share the
// driver FIFO with the REST read endpoint; deployments that enable
// NATS consume bursts from the bus instead.
func (lm *LifecycleManager) startBurstPumps() {
	for id, h := range lm.sensors {
		lm.pumpWg.Add(1)
		go lm.pumpBursts(id, h.Sensor())
	}
}

func (lm *LifecycleManager) pumpBursts(id int32, sensor radarapi.Sensor) {
	defer lm.pumpWg.Done()
	for {
		select {
		case <-lm.shutdownChan:
			return
		default:
		}

		format, payload, err := sensor.ReadBurst(500 * time.Millisecond)
		if err != nil {
			if code := radarapi.CodeOf(err); code != radarapi.RCTimeout {
				lm.logger.Warn("Burst read failed", zap.Int32("sensor_id", id), zap.Error(err))
				lm.wsHub.Broadcast(websocket.NewSensorErrorMessage(id, code.String(), err.Error()))
			}
			continue
		}
		if err := lm.publisher.PublishBurst(id, format, payload); err != nil {
			lm.logger.Warn("Burst publish failed", zap.Int32("sensor_id", id), zap.Error(err))
		}
	}
}

func (lm *LifecycleManager) startRESTServer() error {
	lm.restServer = rest.NewServer(lm.config, lm, lm.logger.Named("rest"), lm.wsHub)
	return lm.restServer.Start()
}

// Shutdown gracefully shuts down the system
func (lm *LifecycleManager) Shutdown(ctx context.Context) error {
	var shutdownErr error

	lm.shutdownOnce.Do(func() {
		lm.logger.Info("Shutting down system")

		lm.setState(StateStopping)
		lm.broadcastStatus()

		shutdownErr = lm.gracefulShutdown(ctx)

		lm.setState(StateStopped)
		lm.broadcastStatus()
	})

	return shutdownErr
}

func (lm *LifecycleManager) gracefulShutdown(ctx context.Context) error {
	close(lm.shutdownChan)
	lm.pumpWg.Wait()

	var wg sync.WaitGroup
	errChan := make(chan error, 2)

	// 1. REST API Server graceful shutdown
	if lm.restServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			if err := lm.restServer.Shutdown(shutdownCtx); err != nil {
				errChan <- fmt.Errorf("rest api shutdown failed: %w", err)
			}
		}()
	}

	// 2. Driver teardown turns every sensor off
	wg.Add(1)
	go func() {
		defer wg.Done()
		if rc := radarapi.Deinit(); rc != radarapi.RCOK {
			errChan <- fmt.Errorf("driver module deinit failed: %w", rc)
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		lm.publisher.Disconnect()
		lm.logger.Info("Graceful shutdown completed")
		return nil
	case <-ctx.Done():
		lm.logger.Warn("Shutdown timeout, forcing stop")
		return fmt.Errorf("shutdown timeout exceeded")
	case err := <-errChan:
		return err
	}
}

func (lm *LifecycleManager) setState(state SystemState) {
	lm.stateMu.Lock()
	defer lm.stateMu.Unlock()
	if state == lm.currentState {
		return
	}
	if err := ValidateTransition(lm.currentState, state); err != nil {
		lm.logger.Warn("Refusing state change", zap.Error(err))
		return
	}
	lm.currentState = state
}

func (lm *LifecycleManager) setError(err error) {
	lm.stateMu.Lock()
	defer lm.stateMu.Unlock()
	lm.currentState = StateError
	lm.lastError = err.Error()
}

// GetCurrentStatus returns current system status (Interface implementation)
func (lm *LifecycleManager) GetCurrentStatus() interfaces.SystemStatus {
	lm.stateMu.RLock()
	defer lm.stateMu.RUnlock()

	streaming := 0
	for _, h := range lm.sensors {
		if s, err := h.Sensor().GetRadarState(); err == nil && s == radarapi.StateActive {
			streaming++
		}
	}

	return interfaces.SystemStatus{
		State:            lm.currentState.String(),
		SensorCount:      len(lm.sensors),
		StreamingSensors: streaming,
		NATSConnected:    lm.publisher.IsConnected(),
	}
}

func (lm *LifecycleManager) getStatusInternal() SystemStatus {
	lm.stateMu.RLock()
	defer lm.stateMu.RUnlock()

	return SystemStatus{
		State:     lm.currentState,
		Timestamp: time.Now().Unix(),
		Error:     lm.lastError,
	}
}

func (lm *LifecycleManager) broadcastStatus() {
	status := lm.getStatusInternal()

	lm.listenersMu.RLock()
	defer lm.listenersMu.RUnlock()

	for _, listener := range lm.statusListeners {
		select {
		case listener <- status:
		default:
			// Channel full, skip
		}
	}
}

// SubscribeStatus subscribes to status updates
func (lm *LifecycleManager) SubscribeStatus() chan SystemStatus {
	ch := make(chan SystemStatus, 10)

	lm.listenersMu.Lock()
	lm.statusListeners = append(lm.statusListeners, ch)
	lm.listenersMu.Unlock()

	return ch
}

// UnsubscribeStatus unsubscribes from status updates
func (lm *LifecycleManager) UnsubscribeStatus(ch chan SystemStatus) {
	lm.listenersMu.Lock()
	defer lm.listenersMu.Unlock()

	for i, listener := range lm.statusListeners {
		if listener == ch {
			lm.statusListeners = append(lm.statusListeners[:i], lm.statusListeners[i+1:]...)
			close(ch)
			break
		}
	}
}

// NotifyStateChange fans a power state change out to WebSocket clients
// and the NATS bus.
func (lm *LifecycleManager) NotifyStateChange(id int32, state, previous radarapi.State) {
	lm.wsHub.Broadcast(websocket.NewSensorStateMessage(id, state, previous))
	if err := lm.publisher.PublishState(id, state); err != nil {
		lm.logger.Warn("State publish failed", zap.Int32("sensor_id", id), zap.Error(err))
	}
}

// Sensor resolves an attached sensor by chip id
func (lm *LifecycleManager) Sensor(id int32) (radarapi.Sensor, bool) {
	h, ok := lm.sensors[id]
	if !ok {
		return nil, false
	}
	return h.Sensor(), true
}

// SensorIDs lists the attached chip ids in ascending order
func (lm *LifecycleManager) SensorIDs() []int32 {
	ids := make([]int32, 0, len(lm.sensors))
	for id := range lm.sensors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// PresetLoader returns the preset loader
func (lm *LifecycleManager) PresetLoader() *presets.Loader {
	return lm.presetLoader
}

// Config returns the configuration
func (lm *LifecycleManager) Config() *config.Config {
	return lm.config
}

func parseLogLevel(s string) (radarapi.LogLevel, error) {
	switch s {
	case "off":
		return radarapi.LogOff, nil
	case "err":
		return radarapi.LogErr, nil
	case "wrn":
		return radarapi.LogWrn, nil
	case "inf", "":
		return radarapi.LogInf, nil
	case "dbg":
		return radarapi.LogDbg, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

func parseFifoMode(s string) (radarapi.FifoMode, error) {
	switch s {
	case "drop_new":
		return radarapi.FifoDropNew, nil
	case "drop_old", "":
		return radarapi.FifoDropOld, nil
	}
	return 0, fmt.Errorf("unknown fifo mode %q", s)
}
