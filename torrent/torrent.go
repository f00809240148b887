// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package torrent declares rtorrent's download, file and tracker methods on
// top of rtrpc and wraps them in typed accessors and multicall builders.
package torrent

import (
	"context"
	"fmt"

	"github.com/luxfi/rtrpc"
)

// Torrent method keys.
const (
	KeyName           = "name"
	KeyHash           = "hash"
	KeySize           = "size_bytes"
	KeyCompletedBytes = "completed_bytes"
	KeyRatio          = "ratio"
	KeyStarted        = "is_started"
	KeyActive         = "is_active"
	KeyComplete       = "is_complete"
	KeyCreationDate   = "creation_date"
	KeyDirectory      = "directory"
	KeyLabel          = "label"
	KeyPeers          = "peers_connected"

	KeyStart        = "start"
	KeyStop         = "stop"
	KeyClose        = "close"
	KeyErase        = "erase"
	KeySetDirectory = "set_directory"
	KeySetLabel     = "set_label"
	KeySetActive    = "set_active"
)

// Class holds the download (d.*) methods. Candidate names list the current
// name first and the pre-0.9 get_/set_ name second.
var Class = newClass()

// multicall is d.multicall2; its leading arguments are an empty target and
// a view name.
var multicall = rtrpc.NewMethod("multicall", []string{"d.multicall2"}, rtrpc.Retriever())

func newClass() *rtrpc.Class {
	c := rtrpc.NewClass("torrent")
	get := func(key string, names []string, post ...rtrpc.PostProcessor) {
		c.Register(key, names, rtrpc.Retriever(), rtrpc.WithPostProcessors(post...))
	}
	get(KeyName, []string{"d.name", "d.get_name"}, rtrpc.ToString)
	get(KeyHash, []string{"d.hash", "d.get_hash"}, rtrpc.ToString)
	get(KeySize, []string{"d.size_bytes", "d.get_size_bytes"}, rtrpc.ToInt)
	get(KeyCompletedBytes, []string{"d.completed_bytes", "d.get_completed_bytes"}, rtrpc.ToInt)
	// rtorrent reports the ratio in thousandths
	get(KeyRatio, []string{"d.ratio", "d.get_ratio"}, rtrpc.DivideBy(1000))
	get(KeyStarted, []string{"d.state", "d.get_state"}, rtrpc.ToBool)
	get(KeyActive, []string{"d.is_active"}, rtrpc.ToBool)
	get(KeyComplete, []string{"d.complete", "d.get_complete"}, rtrpc.ToBool)
	get(KeyCreationDate, []string{"d.creation_date", "d.get_creation_date"}, rtrpc.ToTime)
	get(KeyDirectory, []string{"d.directory", "d.get_directory"}, rtrpc.ToString)
	get(KeyLabel, []string{"d.custom1", "d.get_custom1"}, rtrpc.ToString)
	get(KeyPeers, []string{"d.peers_connected", "d.get_peers_connected"}, rtrpc.ToInt)

	c.Register(KeyStart, []string{"d.start"})
	c.Register(KeyStop, []string{"d.stop"})
	c.Register(KeyClose, []string{"d.close"})
	c.Register(KeyErase, []string{"d.erase"})
	c.Register(KeySetDirectory, []string{"d.directory.set", "d.set_directory"})
	c.Register(KeySetLabel, []string{"d.custom1.set", "d.set_custom1"})

	// set_active(hash, bool) starts or stops the download.
	_, err := c.RegisterPseudo(KeySetActive, []string{KeyStart, KeyStop}, setActiveInput, nil)
	if err != nil {
		panic(err)
	}
	return c
}

func setActiveInput(m map[string]*rtrpc.Method, args []any) ([]rtrpc.Invocation, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("set_active wants (hash, active), got %d args", len(args))
	}
	active, ok := args[1].(bool)
	if !ok {
		return nil, fmt.Errorf("set_active: active is %T, not bool", args[1])
	}
	if active {
		return []rtrpc.Invocation{{Method: m[KeyStart], Args: args[:1]}}, nil
	}
	return []rtrpc.Invocation{{Method: m[KeyStop], Args: args[:1]}}, nil
}

// Torrent is one download on the server, addressed by info hash.
type Torrent struct {
	obj  *rtrpc.Object
	Hash string
}

// New returns the torrent with hash on conn.
func New(conn rtrpc.Conn, hash string) *Torrent {
	return &Torrent{obj: rtrpc.NewObject(Class, conn), Hash: hash}
}

// FromMetadata returns the torrent a multicall record describes; the
// record must include KeyHash.
func FromMetadata(conn rtrpc.Conn, m Metadata) (*Torrent, error) {
	hash := m.String(KeyHash)
	if hash == "" {
		return nil, fmt.Errorf("torrent: metadata has no %q field", KeyHash)
	}
	return New(conn, hash), nil
}

// Exec runs any registered method against this torrent.
func (t *Torrent) Exec(ctx context.Context, key string, args ...any) (any, error) {
	return t.obj.Exec(ctx, key, append([]any{t.Hash}, args...)...)
}

// Name returns the torrent name.
func (t *Torrent) Name(ctx context.Context) (string, error) {
	return execAs[string](ctx, t, KeyName)
}

// Size returns the total size in bytes.
func (t *Torrent) Size(ctx context.Context) (int64, error) {
	return execAs[int64](ctx, t, KeySize)
}

// Ratio returns the upload ratio as a plain fraction.
func (t *Torrent) Ratio(ctx context.Context) (float64, error) {
	return execAs[float64](ctx, t, KeyRatio)
}

// IsActive reports whether the torrent is active.
func (t *Torrent) IsActive(ctx context.Context) (bool, error) {
	return execAs[bool](ctx, t, KeyActive)
}

// Directory returns the download directory.
func (t *Torrent) Directory(ctx context.Context) (string, error) {
	return execAs[string](ctx, t, KeyDirectory)
}

// Label returns the label stored in custom1.
func (t *Torrent) Label(ctx context.Context) (string, error) {
	return execAs[string](ctx, t, KeyLabel)
}

// Start starts the torrent.
func (t *Torrent) Start(ctx context.Context) error {
	_, err := t.Exec(ctx, KeyStart)
	return err
}

// Stop stops the torrent.
func (t *Torrent) Stop(ctx context.Context) error {
	_, err := t.Exec(ctx, KeyStop)
	return err
}

// SetActive starts or stops the torrent.
func (t *Torrent) SetActive(ctx context.Context, active bool) error {
	_, err := t.Exec(ctx, KeySetActive, active)
	return err
}

// SetDirectory moves the download directory setting to dir.
func (t *Torrent) SetDirectory(ctx context.Context, dir string) error {
	_, err := t.Exec(ctx, KeySetDirectory, dir)
	return err
}

// SetLabel stores label in custom1.
func (t *Torrent) SetLabel(ctx context.Context, label string) error {
	_, err := t.Exec(ctx, KeySetLabel, label)
	return err
}

// Erase removes the torrent from the session; data on disk is kept.
func (t *Torrent) Erase(ctx context.Context) error {
	_, err := t.Exec(ctx, KeyErase)
	return err
}

type execer interface {
	Exec(ctx context.Context, key string, args ...any) (any, error)
}

func execAs[T any](ctx context.Context, o execer, key string) (T, error) {
	var zero T
	v, err := o.Exec(ctx, key)
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("torrent: %s returned %T, want %T", key, v, zero)
	}
	return out, nil
}
