// Package joy defines the sensor_msgs/Joy message exchanged over the topic bus
// and the snapshot the view is rendered from.
package joy

import "time"

// Schema is the schema name advertised for published messages.
const Schema = "sensor_msgs/Joy"

var compatibleSchemas = map[string]bool{
	"sensor_msgs/Joy":     true,
	"sensor_msgs/msg/Joy": true,
	"ros.sensor_msgs.Joy": true,
}

// IsCompatible reports whether messages with the given schema carry Joy data.
func IsCompatible(schema string) bool {
	return compatibleSchemas[schema]
}

type Time struct {
	Sec  uint32 `json:"sec"`
	Nsec uint32 `json:"nsec"`
}

func TimeOf(t time.Time) Time {
	return Time{Sec: uint32(t.Unix()), Nsec: uint32(t.Nanosecond())}
}

func (t Time) Time() time.Time {
	return time.Unix(int64(t.Sec), int64(t.Nsec))
}

// Header mirrors std_msgs/Header.
type Header struct {
	FrameID string `json:"frame_id"`
	Stamp   Time   `json:"stamp"`
	Seq     uint32 `json:"seq"`
}

// Joy mirrors sensor_msgs/Joy.
type Joy struct {
	Header  Header    `json:"header"`
	Axes    []float64 `json:"axes"`
	Buttons []int     `json:"buttons"`
}

// Snapshot is one immutable sample of raw controller state.
type Snapshot struct {
	Source  string
	Seq     uint64
	Axes    []float64
	Buttons []int
}

// Axis returns the axis value at i and whether it exists.
func (s *Snapshot) Axis(i int) (float64, bool) {
	if s == nil || i < 0 || i >= len(s.Axes) {
		return 0, false
	}
	return s.Axes[i], true
}

// Button returns the button value at i and whether it exists.
func (s *Snapshot) Button(i int) (int, bool) {
	if s == nil || i < 0 || i >= len(s.Buttons) {
		return 0, false
	}
	return s.Buttons[i], true
}

// FromMessage builds a snapshot from a received message. Slices are copied.
func FromMessage(source string, seq uint64, msg Joy) *Snapshot {
	return &Snapshot{
		Source:  source,
		Seq:     seq,
		Axes:    append([]float64(nil), msg.Axes...),
		Buttons: append([]int(nil), msg.Buttons...),
	}
}

// Message converts the snapshot into a Joy message stamped at now.
func (s *Snapshot) Message(frameID string, now time.Time) Joy {
	return Joy{
		Header: Header{
			FrameID: frameID,
			Stamp:   TimeOf(now),
			Seq:     uint32(s.Seq),
		},
		Axes:    append([]float64(nil), s.Axes...),
		Buttons: append([]int(nil), s.Buttons...),
	}
}
