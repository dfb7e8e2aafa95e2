// Package mqttpub publishes positioning updates to an MQTT broker, one JSON
// message per update kind.
package mqttpub

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"gpsfeed/internal/position"
)

type Config struct {
	Broker   string
	ClientID string
	Prefix   string
}

// Publisher implements nmea.PositionReceiver by publishing each update to
// "<prefix>/<kind>". Position messages are retained so late subscribers get
// the last known fix immediately; everything else is fire-and-forget at
// QoS 0.
type Publisher struct {
	client mqtt.Client
	prefix string
}

func New(cfg Config) (*Publisher, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqttpub: broker is required")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "gpsfeed"
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "gpsfeed"
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqttpub: connect %s: %w", cfg.Broker, token.Error())
	}
	log.Printf("mqtt connected broker=%s client_id=%s", cfg.Broker, cfg.ClientID)

	return &Publisher{client: client, prefix: cfg.Prefix}, nil
}

func (p *Publisher) Close() {
	p.client.Disconnect(250)
}

func (p *Publisher) publish(topic string, payload any, retained bool) {
	b, err := json.Marshal(payload)
	if err != nil {
		log.Printf("mqtt marshal %s: %v", topic, err)
		return
	}
	token := p.client.Publish(p.prefix+"/"+topic, 0, retained, b)
	token.Wait()
	if err := token.Error(); err != nil {
		log.Printf("mqtt publish %s: %v", topic, err)
	}
}

type positionPayload struct {
	LatDeg float64 `json:"lat_deg"`
	LonDeg float64 `json:"lon_deg"`
}

type positionErrorPayload struct {
	HDOP *float64 `json:"hdop,omitempty"`
	VDOP *float64 `json:"vdop,omitempty"`
	PDOP *float64 `json:"pdop,omitempty"`
}

type timePayload struct {
	TimeUTC string `json:"time_utc"`
}

type headingPayload struct {
	CourseDeg    float64  `json:"course_deg"`
	VariationDeg *float64 `json:"variation_deg,omitempty"`
}

type altitudePayload struct {
	AltitudeM float64 `json:"altitude_m"`
}

type speedPayload struct {
	SpeedMPS float64 `json:"speed_mps"`
}

type climbPayload struct {
	ClimbMPS float64 `json:"climb_mps"`
}

type satellitesPayload struct {
	Seen       int                  `json:"seen"`
	Used       int                  `json:"used"`
	Satellites []position.Satellite `json:"satellites"`
}

func newPositionPayload(lat, lon *position.Coordinate) positionPayload {
	return positionPayload{LatDeg: lat.Degrees, LonDeg: lon.Degrees}
}

func newHeadingPayload(h *position.Heading) headingPayload {
	out := headingPayload{CourseDeg: h.Course}
	if h.Variation != nil {
		v := h.Variation.Degrees
		out.VariationDeg = &v
	}
	return out
}

func newSatellitesPayload(bi *position.BeaconInformation) satellitesPayload {
	out := satellitesPayload{Seen: bi.Len(), Satellites: make([]position.Satellite, 0, bi.Len())}
	for _, s := range bi.Satellites() {
		if s.Used {
			out.Used++
		}
		out.Satellites = append(out.Satellites, *s)
	}
	return out
}

func (p *Publisher) PositionReceived(lat, lon *position.Coordinate) {
	p.publish("position", newPositionPayload(lat, lon), true)
}

func (p *Publisher) PositionErrorReceived(pe *position.PositionError) {
	p.publish("error", positionErrorPayload{HDOP: pe.HDOP, VDOP: pe.VDOP, PDOP: pe.PDOP}, false)
}

func (p *Publisher) TimeReceived(t time.Time) {
	p.publish("time", timePayload{TimeUTC: t.Format(time.RFC3339)}, false)
}

func (p *Publisher) HeadingReceived(h *position.Heading) {
	p.publish("heading", newHeadingPayload(h), false)
}

func (p *Publisher) AltitudeReceived(a position.Altitude) {
	p.publish("altitude", altitudePayload{AltitudeM: float64(a)}, false)
}

func (p *Publisher) SpeedReceived(s position.Speed) {
	p.publish("speed", speedPayload{SpeedMPS: float64(s)}, false)
}

func (p *Publisher) ClimbReceived(c position.Climb) {
	p.publish("climb", climbPayload{ClimbMPS: float64(c)}, false)
}

func (p *Publisher) BeaconsReceived(bi *position.BeaconInformation) {
	p.publish("satellites", newSatellitesPayload(bi), false)
}
