package export

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/exolab/exomoon/internal/dynamics"
)

// packed is the transport payload: step metadata plus raw arrays. JSON
// keeps the round trip lossless to float text precision; gzip keeps the
// base64 string compact enough to pass between tools.
type packed struct {
	Dt        float64          `json:"dt"`
	TEnd      float64          `json:"t_end"`
	Planet    []dynamics.Vec3  `json:"xyz_mp"`
	Star      []dynamics.Vec3  `json:"xyz_ms"`
	Moon      []dynamics.Vec3  `json:"xyz_mm"`
	PlanetVel []dynamics.Vec3  `json:"vel_mp,omitempty"`
	StarVel   []dynamics.Vec3  `json:"vel_ms,omitempty"`
	MoonVel   []dynamics.Vec3  `json:"vel_mm,omitempty"`
}

// Pack encodes a trajectory as base64(gzip(json)).
func Pack(traj *dynamics.Trajectory) (string, error) {
	payload := packed{
		Dt:        traj.Dt,
		TEnd:      traj.TEnd,
		Planet:    traj.Planet,
		Star:      traj.Star,
		Moon:      traj.Moon,
		PlanetVel: traj.PlanetVel,
		StarVel:   traj.StarVel,
		MoonVel:   traj.MoonVel,
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := json.NewEncoder(zw).Encode(payload); err != nil {
		return "", fmt.Errorf("export: pack: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("export: pack: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Unpack reverses Pack.
func Unpack(s string) (*dynamics.Trajectory, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("export: unpack: %w", err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("export: unpack: %w", err)
	}
	defer zr.Close()

	var payload packed
	if err := json.NewDecoder(zr).Decode(&payload); err != nil && err != io.EOF {
		return nil, fmt.Errorf("export: unpack: %w", err)
	}

	return &dynamics.Trajectory{
		Planet:    payload.Planet,
		Star:      payload.Star,
		Moon:      payload.Moon,
		PlanetVel: payload.PlanetVel,
		StarVel:   payload.StarVel,
		MoonVel:   payload.MoonVel,
		Dt:        payload.Dt,
		TEnd:      payload.TEnd,
	}, nil
}
