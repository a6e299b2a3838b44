package rest

import (
	"encoding/base64"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/KevinKickass/OpenRadarCore/internal/api/websocket"
	"github.com/KevinKickass/OpenRadarCore/internal/interfaces"
	"github.com/KevinKickass/OpenRadarCore/internal/presets"
	"github.com/KevinKickass/OpenRadarCore/internal/types"
	"github.com/KevinKickass/OpenRadarCore/internal/wire"
	"github.com/KevinKickass/OpenRadarCore/radarapi"
)

// sensorFromPath resolves the :id path parameter to an attached sensor.
// A failed lookup writes the error response and returns false.
func (s *Server) sensorFromPath(c *gin.Context) (radarapi.Sensor, int32, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("SENSOR_400", "Invalid sensor id", c.Param("id")))
		return nil, 0, false
	}
	sensor, ok := s.lm.Sensor(int32(id))
	if !ok {
		c.JSON(http.StatusNotFound, types.NewErrorResponse("SENSOR_404", "Sensor not attached", id))
		return nil, 0, false
	}
	return sensor, int32(id), true
}

func slotFromPath(c *gin.Context) (int, bool) {
	slot, err := strconv.Atoi(c.Param("slot"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("SENSOR_400", "Invalid slot", c.Param("slot")))
		return 0, false
	}
	return slot, true
}

// driverError maps a driver return code onto an HTTP response.
func driverError(c *gin.Context, err error) {
	code := radarapi.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case radarapi.RCBadInput:
		status = http.StatusBadRequest
	case radarapi.RCBadState:
		status = http.StatusConflict
	case radarapi.RCUnsupported:
		status = http.StatusUnprocessableEntity
	case radarapi.RCTimeout:
		status = http.StatusRequestTimeout
	}
	c.JSON(status, types.NewDriverErrorResponse(code, "Driver operation failed", err.Error()))
}

// GET /api/v1/sensors
func (s *Server) listSensors(c *gin.Context) {
	out := make([]gin.H, 0)
	for _, id := range s.lm.SensorIDs() {
		sensor, ok := s.lm.Sensor(id)
		if !ok {
			continue
		}
		info, err := sensor.GetSensorInfo()
		if err != nil {
			continue
		}
		entry := gin.H{
			"sensor_id": id,
			"name":      info.Name,
			"vendor":    info.Vendor,
			"state":     info.State.String(),
		}
		if bc, ok := sensor.(interfaces.BurstCounter); ok {
			entry["pending_bursts"] = bc.PendingBursts()
			entry["dropped_bursts"] = bc.DroppedBursts()
		}
		out = append(out, entry)
	}
	c.JSON(http.StatusOK, gin.H{"sensors": out})
}

// GET /api/v1/sensors/:id
func (s *Server) getSensorInfo(c *gin.Context) {
	sensor, _, ok := s.sensorFromPath(c)
	if !ok {
		return
	}
	info, err := sensor.GetSensorInfo()
	if err != nil {
		driverError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// GET /api/v1/sensors/:id/state
func (s *Server) getSensorState(c *gin.Context) {
	sensor, _, ok := s.sensorFromPath(c)
	if !ok {
		return
	}
	state, err := sensor.GetRadarState()
	if err != nil {
		driverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state.String()})
}

// POST /api/v1/sensors/:id/power
func (s *Server) powerCommand(c *gin.Context) {
	sensor, id, ok := s.sensorFromPath(c)
	if !ok {
		return
	}

	var req struct {
		Command string `json:"command" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("SENSOR_400", "Invalid request body", err.Error()))
		return
	}

	previous, _ := sensor.GetRadarState()

	var err error
	switch req.Command {
	case "on":
		err = sensor.TurnOn()
	case "off":
		err = sensor.TurnOff()
	case "sleep":
		err = sensor.GoSleep()
	case "wake":
		err = sensor.WakeUp()
	default:
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("SENSOR_400", "Unknown power command", req.Command))
		return
	}
	if err != nil {
		s.logger.Error("Power command failed",
			zap.Int32("sensor_id", id),
			zap.String("command", req.Command),
			zap.Error(err))
		s.wsHub.Broadcast(websocket.NewSensorErrorMessage(id, radarapi.CodeOf(err).String(), err.Error()))
		driverError(c, err)
		return
	}

	state, _ := sensor.GetRadarState()
	s.broadcastState(id, state, previous)
	c.JSON(http.StatusOK, gin.H{"state": state.String()})
}

// POST /api/v1/sensors/:id/country
func (s *Server) setCountryCode(c *gin.Context) {
	sensor, id, ok := s.sensorFromPath(c)
	if !ok {
		return
	}
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("SENSOR_400", "Invalid request body", err.Error()))
		return
	}

	previous, _ := sensor.GetRadarState()
	if err := sensor.SetCountryCode(req.Code); err != nil {
		// A refused code may have forced the radar off.
		if state, serr := sensor.GetRadarState(); serr == nil && state != previous {
			s.broadcastState(id, state, previous)
		}
		driverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"country_code": req.Code})
}

// POST /api/v1/sensors/:id/fifo-mode
func (s *Server) setFifoMode(c *gin.Context) {
	sensor, _, ok := s.sensorFromPath(c)
	if !ok {
		return
	}
	var req struct {
		Mode string `json:"mode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("SENSOR_400", "Invalid request body", err.Error()))
		return
	}

	var mode radarapi.FifoMode
	switch req.Mode {
	case "drop_new":
		mode = radarapi.FifoDropNew
	case "drop_old":
		mode = radarapi.FifoDropOld
	default:
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("SENSOR_400", "Unknown fifo mode", req.Mode))
		return
	}
	if err := sensor.SetFifoMode(mode); err != nil {
		driverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fifo_mode": req.Mode})
}

// POST /api/v1/sensors/:id/log-level
func (s *Server) setLogLevel(c *gin.Context) {
	sensor, _, ok := s.sensorFromPath(c)
	if !ok {
		return
	}
	var req struct {
		Level string `json:"level" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("SENSOR_400", "Invalid request body", err.Error()))
		return
	}

	levels := map[string]radarapi.LogLevel{
		"off": radarapi.LogOff,
		"err": radarapi.LogErr,
		"wrn": radarapi.LogWrn,
		"inf": radarapi.LogInf,
		"dbg": radarapi.LogDbg,
	}
	level, ok2 := levels[req.Level]
	if !ok2 {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("SENSOR_400", "Unknown log level", req.Level))
		return
	}
	if err := sensor.SetLogLevel(level); err != nil {
		driverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"log_level": req.Level})
}

// GET /api/v1/sensors/:id/slots
func (s *Server) listSlots(c *gin.Context) {
	sensor, _, ok := s.sensorFromPath(c)
	if !ok {
		return
	}
	count, err := sensor.GetNumConfigSlots()
	if err != nil {
		driverError(c, err)
		return
	}
	active, err := sensor.GetActiveConfigs()
	if err != nil {
		driverError(c, err)
		return
	}
	if active == nil {
		active = []int{}
	}
	c.JSON(http.StatusOK, gin.H{
		"num_slots":    count,
		"active_slots": active,
	})
}

// POST /api/v1/sensors/:id/slots/:slot/activate
func (s *Server) activateSlot(c *gin.Context) {
	sensor, _, ok := s.sensorFromPath(c)
	if !ok {
		return
	}
	slot, ok := slotFromPath(c)
	if !ok {
		return
	}
	if err := sensor.ActivateConfig(slot); err != nil {
		driverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slot": slot, "active": true})
}

// POST /api/v1/sensors/:id/slots/:slot/deactivate
func (s *Server) deactivateSlot(c *gin.Context) {
	sensor, _, ok := s.sensorFromPath(c)
	if !ok {
		return
	}
	slot, ok := slotFromPath(c)
	if !ok {
		return
	}
	if err := sensor.DeactivateConfig(slot); err != nil {
		driverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slot": slot, "active": false})
}

// POST /api/v1/sensors/:id/slots/:slot/preset
func (s *Server) applyPreset(c *gin.Context) {
	sensor, _, ok := s.sensorFromPath(c)
	if !ok {
		return
	}
	slot, ok := slotFromPath(c)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("SENSOR_400", "Invalid request body", err.Error()))
		return
	}

	preset, err := s.lm.PresetLoader().Load(req.Name)
	if err != nil {
		c.JSON(http.StatusNotFound, types.NewErrorResponse("PRESET_404", "Preset not found", err.Error()))
		return
	}
	if err := preset.Apply(sensor, slot); err != nil {
		driverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slot": slot, "preset": req.Name})
}

// resolveParam turns the :group/:param path pair into a getter/setter
// closure pair over the sensor.
func resolveParam(c *gin.Context, sensor radarapi.Sensor, slot int) (get func() (uint32, error), set func(uint32) error, ok bool) {
	group := c.Param("group")
	name := c.Param("param")

	switch group {
	case "main":
		id, found := presets.MainParamByName(name)
		if !found {
			c.JSON(http.StatusBadRequest, types.NewErrorResponse("SENSOR_400", "Unknown main parameter", name))
			return nil, nil, false
		}
		return func() (uint32, error) { return sensor.GetMainParam(slot, id) },
			func(v uint32) error { return sensor.SetMainParam(slot, id, v) }, true

	case "channel":
		id, found := presets.ChannelParamByName(name)
		if !found {
			c.JSON(http.StatusBadRequest, types.NewErrorResponse("SENSOR_400", "Unknown channel parameter", name))
			return nil, nil, false
		}
		channel, err := strconv.Atoi(c.DefaultQuery("channel", "0"))
		if err != nil {
			c.JSON(http.StatusBadRequest, types.NewErrorResponse("SENSOR_400", "Invalid channel", c.Query("channel")))
			return nil, nil, false
		}
		return func() (uint32, error) { return sensor.GetChannelParam(slot, channel, id) },
			func(v uint32) error { return sensor.SetChannelParam(slot, channel, id, v) }, true

	case "vendor":
		id, err := strconv.ParseUint(name, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, types.NewErrorResponse("SENSOR_400", "Vendor parameters are addressed by number", name))
			return nil, nil, false
		}
		vid := radarapi.VendorParam(id)
		return func() (uint32, error) { return sensor.GetVendorParam(slot, vid) },
			func(v uint32) error { return sensor.SetVendorParam(slot, vid, v) }, true
	}

	c.JSON(http.StatusBadRequest, types.NewErrorResponse("SENSOR_400", "Unknown parameter group", group))
	return nil, nil, false
}

// GET /api/v1/sensors/:id/slots/:slot/params/:group/:param
func (s *Server) getParam(c *gin.Context) {
	sensor, _, ok := s.sensorFromPath(c)
	if !ok {
		return
	}
	slot, ok := slotFromPath(c)
	if !ok {
		return
	}
	get, _, ok := resolveParam(c, sensor, slot)
	if !ok {
		return
	}
	value, err := get()
	if err != nil {
		driverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"value": value})
}

// PUT /api/v1/sensors/:id/slots/:slot/params/:group/:param
func (s *Server) setParam(c *gin.Context) {
	sensor, _, ok := s.sensorFromPath(c)
	if !ok {
		return
	}
	slot, ok := slotFromPath(c)
	if !ok {
		return
	}
	var req struct {
		Value uint32 `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("SENSOR_400", "Invalid request body", err.Error()))
		return
	}
	_, set, ok := resolveParam(c, sensor, slot)
	if !ok {
		return
	}
	if err := set(req.Value); err != nil {
		driverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"value": req.Value})
}

// GET /api/v1/sensors/:id/params/:group/:param/range
func (s *Server) getParamRange(c *gin.Context) {
	sensor, _, ok := s.sensorFromPath(c)
	if !ok {
		return
	}
	group := c.Param("group")
	name := c.Param("param")

	var min, max uint32
	var err error
	switch group {
	case "main":
		id, found := presets.MainParamByName(name)
		if !found {
			c.JSON(http.StatusBadRequest, types.NewErrorResponse("SENSOR_400", "Unknown main parameter", name))
			return
		}
		min, max, err = sensor.GetMainParamRange(id)
	case "channel":
		id, found := presets.ChannelParamByName(name)
		if !found {
			c.JSON(http.StatusBadRequest, types.NewErrorResponse("SENSOR_400", "Unknown channel parameter", name))
			return
		}
		min, max, err = sensor.GetChannelParamRange(id)
	default:
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("SENSOR_400", "Ranges exist for main and channel parameters", group))
		return
	}
	if err != nil {
		driverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"min": min, "max": max})
}

// POST /api/v1/sensors/:id/streaming/start
func (s *Server) startStreaming(c *gin.Context) {
	sensor, id, ok := s.sensorFromPath(c)
	if !ok {
		return
	}
	previous, _ := sensor.GetRadarState()
	if err := sensor.StartDataStreaming(); err != nil {
		driverError(c, err)
		return
	}
	s.broadcastState(id, radarapi.StateActive, previous)
	c.JSON(http.StatusOK, gin.H{"streaming": true})
}

// POST /api/v1/sensors/:id/streaming/stop
func (s *Server) stopStreaming(c *gin.Context) {
	sensor, id, ok := s.sensorFromPath(c)
	if !ok {
		return
	}
	if err := sensor.StopDataStreaming(); err != nil {
		driverError(c, err)
		return
	}
	s.broadcastState(id, radarapi.StateIdle, radarapi.StateActive)
	c.JSON(http.StatusOK, gin.H{"streaming": false})
}

// GET /api/v1/sensors/:id/burst?timeout_ms=1000&encoding=json|binary
//
// Binary responses carry the packed wire frame (header + payload);
// JSON responses base64 the payload.
func (s *Server) readBurst(c *gin.Context) {
	sensor, _, ok := s.sensorFromPath(c)
	if !ok {
		return
	}
	timeoutMs, err := strconv.Atoi(c.DefaultQuery("timeout_ms", "1000"))
	if err != nil || timeoutMs < 0 {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("SENSOR_400", "Invalid timeout", c.Query("timeout_ms")))
		return
	}

	format, payload, err := sensor.ReadBurst(time.Duration(timeoutMs) * time.Millisecond)
	if err != nil {
		driverError(c, err)
		return
	}

	if c.DefaultQuery("encoding", "json") == "binary" {
		frame := wire.AppendHeader(make([]byte, 0, wire.HeaderSize+len(payload)), format)
		frame = append(frame, payload...)
		c.Data(http.StatusOK, "application/octet-stream", frame)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"format":  format,
		"payload": base64.StdEncoding.EncodeToString(payload),
	})
}

// GET /api/v1/sensors/:id/registers
func (s *Server) getAllRegisters(c *gin.Context) {
	sensor, _, ok := s.sensorFromPath(c)
	if !ok {
		return
	}
	regs, err := sensor.GetAllRegisters()
	if err != nil {
		driverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"registers": regs})
}

func registerAddress(c *gin.Context) (uint32, bool) {
	// Base 0 accepts both decimal and 0x-prefixed hex.
	addr, err := strconv.ParseUint(c.Param("address"), 0, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("SENSOR_400", "Invalid register address", c.Param("address")))
		return 0, false
	}
	return uint32(addr), true
}

// GET /api/v1/sensors/:id/registers/:address
func (s *Server) getRegister(c *gin.Context) {
	sensor, _, ok := s.sensorFromPath(c)
	if !ok {
		return
	}
	addr, ok := registerAddress(c)
	if !ok {
		return
	}
	value, err := sensor.GetRegister(addr)
	if err != nil {
		driverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": addr, "value": value})
}

// PUT /api/v1/sensors/:id/registers/:address
func (s *Server) setRegister(c *gin.Context) {
	sensor, _, ok := s.sensorFromPath(c)
	if !ok {
		return
	}
	addr, ok := registerAddress(c)
	if !ok {
		return
	}
	var req struct {
		Value uint32 `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("SENSOR_400", "Invalid request body", err.Error()))
		return
	}
	if err := sensor.SetRegister(addr, req.Value); err != nil {
		driverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": addr, "value": req.Value})
}

// GET /api/v1/presets
func (s *Server) listPresets(c *gin.Context) {
	names, err := s.lm.PresetLoader().List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse("PRESET_500", "Failed to list presets", err.Error()))
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"presets": names})
}

// GET /api/v1/presets/:name
func (s *Server) getPreset(c *gin.Context) {
	preset, err := s.lm.PresetLoader().Load(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, types.NewErrorResponse("PRESET_404", "Preset not found", err.Error()))
		return
	}
	c.JSON(http.StatusOK, preset)
}

func (s *Server) broadcastState(id int32, state, previous radarapi.State) {
	s.lm.NotifyStateChange(id, state, previous)
}
