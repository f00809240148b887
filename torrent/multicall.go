// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package torrent

import (
	"context"

	"github.com/luxfi/rtrpc"
)

// Views accepted by NewMulticall.
const (
	ViewMain     = "main"
	ViewStarted  = "started"
	ViewStopped  = "stopped"
	ViewComplete = "complete"
	ViewActive   = "active"
)

// Builder selects torrent fields for one d.multicall2 over a view. Each
// selector is shorthand for Select with the matching key.
type Builder struct {
	mc *rtrpc.Multicall[Metadata]
}

// NewMulticall starts a multicall over every torrent in view.
func NewMulticall(conn rtrpc.Conn, view string) *Builder {
	return &Builder{mc: rtrpc.NewMulticall(conn, Class, multicall, NewMetadata, "", view)}
}

// Select adds fields by key, in order.
func (b *Builder) Select(keys ...string) *Builder {
	b.mc.Select(keys...)
	return b
}

// Field selectors, each equal to Select with the matching key.
func (b *Builder) Name() *Builder           { return b.Select(KeyName) }
func (b *Builder) Hash() *Builder           { return b.Select(KeyHash) }
func (b *Builder) Size() *Builder           { return b.Select(KeySize) }
func (b *Builder) CompletedBytes() *Builder { return b.Select(KeyCompletedBytes) }
func (b *Builder) Ratio() *Builder          { return b.Select(KeyRatio) }
func (b *Builder) IsStarted() *Builder      { return b.Select(KeyStarted) }
func (b *Builder) IsActive() *Builder       { return b.Select(KeyActive) }
func (b *Builder) IsComplete() *Builder     { return b.Select(KeyComplete) }
func (b *Builder) CreationDate() *Builder   { return b.Select(KeyCreationDate) }
func (b *Builder) Directory() *Builder      { return b.Select(KeyDirectory) }
func (b *Builder) Label() *Builder          { return b.Select(KeyLabel) }
func (b *Builder) Peers() *Builder          { return b.Select(KeyPeers) }

// Err returns the first selection error, if any.
func (b *Builder) Err() error { return b.mc.Err() }

// Call runs the multicall.
func (b *Builder) Call(ctx context.Context) ([]Metadata, error) {
	return b.mc.Call(ctx)
}

// FileBuilder selects file fields of one torrent.
type FileBuilder struct {
	mc *rtrpc.Multicall[Metadata]
}

// NewFileMulticall starts a multicall over every file of the torrent hash.
func NewFileMulticall(conn rtrpc.Conn, hash string) *FileBuilder {
	return &FileBuilder{mc: rtrpc.NewMulticall(conn, FileClass, fileMulticall, NewMetadata, hash, "")}
}

// Select adds file fields by key, in order.
func (b *FileBuilder) Select(keys ...string) *FileBuilder {
	b.mc.Select(keys...)
	return b
}

func (b *FileBuilder) Path() *FileBuilder            { return b.Select(FileKeyPath) }
func (b *FileBuilder) Size() *FileBuilder            { return b.Select(FileKeySize) }
func (b *FileBuilder) SizeChunks() *FileBuilder      { return b.Select(FileKeySizeChunks) }
func (b *FileBuilder) CompletedChunks() *FileBuilder { return b.Select(FileKeyCompletedChunks) }
func (b *FileBuilder) Priority() *FileBuilder        { return b.Select(FileKeyPriority) }

// Err returns the first selection error, if any.
func (b *FileBuilder) Err() error { return b.mc.Err() }

// Call runs the multicall.
func (b *FileBuilder) Call(ctx context.Context) ([]Metadata, error) {
	return b.mc.Call(ctx)
}

// TrackerBuilder selects tracker fields of one torrent.
type TrackerBuilder struct {
	mc *rtrpc.Multicall[Metadata]
}

// NewTrackerMulticall starts a multicall over every tracker of the torrent hash.
func NewTrackerMulticall(conn rtrpc.Conn, hash string) *TrackerBuilder {
	return &TrackerBuilder{mc: rtrpc.NewMulticall(conn, TrackerClass, trackerMulticall, NewMetadata, hash, "")}
}

// Select adds tracker fields by key, in order.
func (b *TrackerBuilder) Select(keys ...string) *TrackerBuilder {
	b.mc.Select(keys...)
	return b
}

func (b *TrackerBuilder) URL() *TrackerBuilder            { return b.Select(TrackerKeyURL) }
func (b *TrackerBuilder) IsEnabled() *TrackerBuilder      { return b.Select(TrackerKeyEnabled) }
func (b *TrackerBuilder) Type() *TrackerBuilder           { return b.Select(TrackerKeyType) }
func (b *TrackerBuilder) ScrapeComplete() *TrackerBuilder { return b.Select(TrackerKeyScrapeComplete) }
func (b *TrackerBuilder) LastScrape() *TrackerBuilder     { return b.Select(TrackerKeyLastScrape) }

// Err returns the first selection error, if any.
func (b *TrackerBuilder) Err() error { return b.mc.Err() }

// Call runs the multicall.
func (b *TrackerBuilder) Call(ctx context.Context) ([]Metadata, error) {
	return b.mc.Call(ctx)
}
