// ABOUTME: NetworkTables 4 control message definitions
// ABOUTME: JSON text-frame messages exchanged with the table server
package nt

import "encoding/json"

// Text frame methods
const (
	MethodPublish     = "publish"
	MethodUnpublish   = "unpublish"
	MethodSetProps    = "setproperties"
	MethodSubscribe   = "subscribe"
	MethodUnsubscribe = "unsubscribe"
	MethodAnnounce    = "announce"
	MethodUnannounce  = "unannounce"
	MethodProperties  = "properties"
)

// Topic type strings and their binary type ids
const (
	TypeBoolean = "boolean"
	TypeDouble  = "double"
	TypeInt     = "int"
	TypeFloat   = "float"
	TypeString  = "string"

	TypeIDBoolean = 0
	TypeIDDouble  = 1
	TypeIDInt     = 2
	TypeIDFloat   = 3
	TypeIDString  = 4
)

// Message is one element of a text frame; frames carry a JSON array of them
type Message struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// outMessage is the sending side of Message
type outMessage struct {
	Method string      `json:"method"`
	Params interface{} `json:"params"`
}

// PublishParams announces that the client will write values to a topic
type PublishParams struct {
	Name       string                 `json:"name"`
	PubUID     int64                  `json:"pubuid"`
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
}

// SubscribeParams asks the server to send announcements and values for topics
type SubscribeParams struct {
	Topics  []string         `json:"topics"`
	SubUID  int64            `json:"subuid"`
	Options SubscribeOptions `json:"options"`
}

// SubscribeOptions tunes a subscription
type SubscribeOptions struct {
	Periodic   float64 `json:"periodic,omitempty"`
	All        bool    `json:"all,omitempty"`
	TopicsOnly bool    `json:"topicsonly,omitempty"`
	Prefix     bool    `json:"prefix,omitempty"`
}

// AnnounceParams is sent by the server when a topic becomes visible to the client.
// PubUID is set only when the announcement answers this client's publish.
type AnnounceParams struct {
	Name       string                 `json:"name"`
	ID         int64                  `json:"id"`
	Type       string                 `json:"type"`
	PubUID     *int64                 `json:"pubuid,omitempty"`
	Properties map[string]interface{} `json:"properties"`
}

// UnannounceParams is sent by the server when a topic goes away
type UnannounceParams struct {
	Name string `json:"name"`
	ID   int64  `json:"id"`
}

// PropertiesParams reports a change to a topic's properties
type PropertiesParams struct {
	Name   string                 `json:"name"`
	Ack    bool                   `json:"ack,omitempty"`
	Update map[string]interface{} `json:"update"`
}

func publishMessage(name string, pubUID int64, typ string) outMessage {
	return outMessage{
		Method: MethodPublish,
		Params: PublishParams{
			Name:       name,
			PubUID:     pubUID,
			Type:       typ,
			Properties: map[string]interface{}{},
		},
	}
}

func subscribeMessage(name string, subUID int64) outMessage {
	return outMessage{
		Method: MethodSubscribe,
		Params: SubscribeParams{
			Topics: []string{name},
			SubUID: subUID,
		},
	}
}
