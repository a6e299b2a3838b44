package websocket

import (
	"time"

	"github.com/KevinKickass/OpenRadarCore/radarapi"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Sensor lifecycle messages
	MessageTypeSensorState MessageType = "sensor_state"
	MessageTypeSensorError MessageType = "sensor_error"

	// Acquisition messages
	MessageTypeBurstReady  MessageType = "burst_ready"
	MessageTypeRegisterSet MessageType = "register_set"
	MessageTypeDriverLog   MessageType = "driver_log"

	// System messages
	MessageTypeSystemStatus MessageType = "system_status"
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// SensorStateData reports a power state change of one sensor
type SensorStateData struct {
	SensorID int32  `json:"sensor_id"`
	State    string `json:"state"`
	Previous string `json:"previous_state,omitempty"`
}

// SensorErrorData reports a failed driver operation with its return code
type SensorErrorData struct {
	SensorID int32  `json:"sensor_id"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// SystemStatusData reports a daemon lifecycle state change
type SystemStatusData struct {
	State     string `json:"state"`
	Timestamp int64  `json:"timestamp"`
	Error     string `json:"error,omitempty"`
}

// BurstReadyData announces a queued burst without carrying the payload.
// Clients pull the samples over the REST endpoint.
type BurstReadyData struct {
	SensorID int32  `json:"sensor_id"`
	Pending  int    `json:"pending_bursts"`
	Dropped  uint64 `json:"dropped_bursts"`
}

// RegisterSetData mirrors a confirmed register write
type RegisterSetData struct {
	SensorID int32  `json:"sensor_id"`
	Address  uint32 `json:"address"`
	Value    uint32 `json:"value"`
}

// DriverLogData carries a driver log line with its source position
type DriverLogData struct {
	SensorID int32  `json:"sensor_id"`
	Level    string `json:"level"`
	File     string `json:"file"`
	Function string `json:"function"`
	Line     int    `json:"line"`
	Message  string `json:"message"`
}

// NewMessage creates a new message with current timestamp
func NewMessage(msgType MessageType, data interface{}) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// Helper functions for creating specific message types

func NewSensorStateMessage(sensorID int32, state, previous radarapi.State) Message {
	return NewMessage(MessageTypeSensorState, SensorStateData{
		SensorID: sensorID,
		State:    state.String(),
		Previous: previous.String(),
	})
}

func NewSensorErrorMessage(sensorID int32, code, message string) Message {
	return NewMessage(MessageTypeSensorError, SensorErrorData{
		SensorID: sensorID,
		Code:     code,
		Message:  message,
	})
}

func NewSystemStatusMessage(state string, timestamp int64, errMsg string) Message {
	return NewMessage(MessageTypeSystemStatus, SystemStatusData{
		State:     state,
		Timestamp: timestamp,
		Error:     errMsg,
	})
}

func NewBurstReadyMessage(sensorID int32, pending int, dropped uint64) Message {
	return NewMessage(MessageTypeBurstReady, BurstReadyData{
		SensorID: sensorID,
		Pending:  pending,
		Dropped:  dropped,
	})
}

func NewRegisterSetMessage(sensorID int32, address, value uint32) Message {
	return NewMessage(MessageTypeRegisterSet, RegisterSetData{
		SensorID: sensorID,
		Address:  address,
		Value:    value,
	})
}

func NewDriverLogMessage(sensorID int32, level radarapi.LogLevel, file, function string, line int, text string) Message {
	return NewMessage(MessageTypeDriverLog, DriverLogData{
		SensorID: sensorID,
		Level:    level.String(),
		File:     file,
		Function: function,
		Line:     line,
		Message:  text,
	})
}
