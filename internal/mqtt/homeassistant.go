package mqtt

import (
	"encoding/json"
	"fmt"

	"github.com/jkaflik/valve2mqtt/internal/signal"
	"github.com/jkaflik/valve2mqtt/internal/valve"
	"github.com/pkg/errors"
)

type haDevice struct {
	Identifiers  []string `json:"ids,omitempty"`
	Manufacturer string   `json:"mf,omitempty"`
	Model        string   `json:"mdl,omitempty"`
	Name         string   `json:"name,omitempty"`
	SWVersion    string   `json:"sw,omitempty"`
}

type haEntity struct {
	AvailabilityTopic string `json:"avty_t,omitempty"`
	UniqueID          string `json:"uniq_id,omitempty"`
	Name              string `json:"name,omitempty"`
	Icon              string `json:"ic,omitempty"`

	Device haDevice `json:"device,omitempty"`
}

// HAEntity is one discovery config document.
type HAEntity interface {
	Component() string
	ObjectID() string
}

type haImage struct {
	haEntity
	ImageTopic  string `json:"image_topic"`
	ContentType string `json:"content_type"`
}

func (e haImage) Component() string { return "image" }
func (e haImage) ObjectID() string  { return e.UniqueID }

type haSensor struct {
	haEntity
	StateTopic          string `json:"stat_t"`
	JSONAttributesTopic string `json:"json_attr_t"`
}

func (e haSensor) Component() string { return "sensor" }
func (e haSensor) ObjectID() string  { return e.UniqueID }

type haButton struct {
	haEntity
	CommandTopic string `json:"cmd_t"`
	PayloadPress string `json:"pl_prs"`
}

func (e haButton) Component() string { return "button" }
func (e haButton) ObjectID() string  { return e.UniqueID }

func haEntityFromBridge(bridge *Bridge, suffix, name, icon string) haEntity {
	return haEntity{
		AvailabilityTopic: bridge.AvailabilityTopic,
		UniqueID:          bridge.Name() + suffix,
		Name:              name,
		Icon:              icon,

		Device: haDevice{
			Identifiers: []string{"valve2mqtt_" + bridge.Name()},
			Model:       "valve",
			Name:        bridge.Name(),
			SWVersion:   "valve2mqtt",
		},
	}
}

// NewHAEntitiesFromMQTTBridge returns the snapshot image, the state sensor
// and one button per command the widget currently shows.
func NewHAEntitiesFromMQTTBridge(bridge *Bridge) []HAEntity {
	entities := []HAEntity{
		haImage{
			haEntity:    haEntityFromBridge(bridge, "_snapshot", "Snapshot", "mdi:valve"),
			ImageTopic:  bridge.SnapshotTopic,
			ContentType: "image/png",
		},
		haSensor{
			haEntity:            haEntityFromBridge(bridge, "_state", "State", "mdi:valve"),
			StateTopic:          bridge.StateTopic,
			JSONAttributesTopic: bridge.AttributesTopic,
		},
	}

	for _, cmd := range bridge.widget.Buttons() {
		entities = append(entities, newHAButton(bridge, cmd))
	}

	return entities
}

func newHAButton(bridge *Bridge, cmd valve.Command) haButton {
	return haButton{
		haEntity:     haEntityFromBridge(bridge, "_"+cmd.String(), commandLabel(cmd), commandIcon(cmd)),
		CommandTopic: bridge.CommandTopic,
		PayloadPress: cmd.String(),
	}
}

func commandLabel(cmd valve.Command) string {
	switch cmd {
	case valve.Open:
		return "Open"
	case valve.OpenSmoothly:
		return "Open smoothly"
	default:
		return "Close"
	}
}

func commandIcon(cmd valve.Command) string {
	if cmd.Opens() {
		return "mdi:valve-open"
	}
	return "mdi:valve-closed"
}

func haDiscoveryTopic(homeAssistantDiscoveryTopicPrefix string, entity HAEntity) string {
	return fmt.Sprintf("%s/%s/valve2mqtt/%s/config", homeAssistantDiscoveryTopicPrefix, entity.Component(), entity.ObjectID())
}

func PublishHAAutoDiscovery(client signal.Client, homeAssistantDiscoveryTopicPrefix string, entity HAEntity) error {
	payload, err := json.Marshal(entity)
	if err != nil {
		return err
	}

	topic := haDiscoveryTopic(homeAssistantDiscoveryTopicPrefix, entity)
	if err := signal.Wait(client.Publish(topic, 0, true, payload), signal.DefaultPublishTimeout); err != nil {
		return errors.Wrapf(err, "%s: discovery publish failed", entity.ObjectID())
	}

	return nil
}

// RemoveHAAutoDiscovery clears the retained config of entity, Home Assistant
// drops the entity on an empty config.
func RemoveHAAutoDiscovery(client signal.Client, homeAssistantDiscoveryTopicPrefix string, entity HAEntity) error {
	topic := haDiscoveryTopic(homeAssistantDiscoveryTopicPrefix, entity)
	if err := signal.Wait(client.Publish(topic, 0, true, ""), signal.DefaultPublishTimeout); err != nil {
		return errors.Wrapf(err, "%s: discovery removal failed", entity.ObjectID())
	}

	return nil
}
