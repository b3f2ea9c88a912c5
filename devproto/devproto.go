// Package devproto defines the JSON control messages exchanged between
// the fresco watcher and connected applications.
package devproto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"fresco/ui"
)

// ProtocolVersion is the current watcher protocol version.
const ProtocolVersion = 1

// MessageType describes control message types sent over the reload WS channel.
type MessageType string

const (
	MessageTypeHello           MessageType = "hello"
	MessageTypeTemplateUpdated MessageType = "template_updated"
	MessageTypeShutdown        MessageType = "shutdown"
)

// Envelope holds the common type field for control messages.
type Envelope struct {
	Type MessageType `json:"type"`
}

// HelloMessage announces an application connection and protocol version.
type HelloMessage struct {
	Type            MessageType `json:"type"`
	ProtocolVersion int         `json:"protocol_version"`
	App             string      `json:"app"`
}

// TemplateUpdatedMessage carries one recompiled template.
type TemplateUpdatedMessage struct {
	Type     MessageType `json:"type"`
	Template ui.Template `json:"template"`
}

// ShutdownMessage tells applications the watcher is going away.
type ShutdownMessage struct {
	Type MessageType `json:"type"`
}

// NewHello builds a hello message for the current protocol version.
func NewHello(app string) HelloMessage {
	return HelloMessage{Type: MessageTypeHello, ProtocolVersion: ProtocolVersion, App: app}
}

// NewTemplateUpdated wraps a template for the wire.
func NewTemplateUpdated(template ui.Template) TemplateUpdatedMessage {
	return TemplateUpdatedMessage{Type: MessageTypeTemplateUpdated, Template: template}
}

// NewShutdown builds a shutdown notice.
func NewShutdown() ShutdownMessage {
	return ShutdownMessage{Type: MessageTypeShutdown}
}

// EncodeMessage validates and encodes a control message as JSON.
func EncodeMessage(msg interface{}) ([]byte, error) {
	if err := ValidateMessage(msg); err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}

// DecodeMessage decodes and validates a control message from JSON.
func DecodeMessage(payload []byte) (interface{}, error) {
	var envelope Envelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, err
	}
	if envelope.Type == "" {
		return nil, errors.New("control message missing type")
	}

	switch envelope.Type {
	case MessageTypeHello:
		var msg HelloMessage
		if err := decodeStrict(payload, &msg); err != nil {
			return nil, err
		}
		return msg, ValidateMessage(msg)
	case MessageTypeTemplateUpdated:
		var msg TemplateUpdatedMessage
		if err := decodeStrict(payload, &msg); err != nil {
			return nil, err
		}
		return msg, ValidateMessage(msg)
	case MessageTypeShutdown:
		var msg ShutdownMessage
		if err := decodeStrict(payload, &msg); err != nil {
			return nil, err
		}
		return msg, ValidateMessage(msg)
	default:
		return nil, fmt.Errorf("unknown control message type %q", envelope.Type)
	}
}

// ValidateMessage validates a control message payload.
func ValidateMessage(msg interface{}) error {
	switch typed := msg.(type) {
	case HelloMessage:
		if typed.Type != MessageTypeHello {
			return fmt.Errorf("hello message has invalid type %q", typed.Type)
		}
		if typed.ProtocolVersion <= 0 {
			return errors.New("hello message requires protocol_version")
		}
		if typed.App == "" {
			return errors.New("hello message requires app")
		}
		return nil
	case TemplateUpdatedMessage:
		if typed.Type != MessageTypeTemplateUpdated {
			return fmt.Errorf("template_updated message has invalid type %q", typed.Type)
		}
		if typed.Template.Name == "" {
			return errors.New("template_updated message requires template name")
		}
		return nil
	case ShutdownMessage:
		if typed.Type != MessageTypeShutdown {
			return fmt.Errorf("shutdown message has invalid type %q", typed.Type)
		}
		return nil
	default:
		return errors.New("unsupported control message type")
	}
}

func decodeStrict(payload []byte, target interface{}) error {
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return errors.New("control message has trailing data")
		}
		return err
	}
	return nil
}
