// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package torrent

import (
	"context"
	"strconv"

	"github.com/luxfi/rtrpc"
)

// File method keys.
const (
	FileKeyPath            = "path"
	FileKeySize            = "size_bytes"
	FileKeySizeChunks      = "size_chunks"
	FileKeyCompletedChunks = "completed_chunks"
	FileKeyPriority        = "priority"
	FileKeySetPriority     = "set_priority"
)

// File priorities as rtorrent encodes them.
const (
	PriorityOff    = 0
	PriorityNormal = 1
	PriorityHigh   = 2
)

// FileClass holds the f.* methods. Every call takes a "hash:fN" target.
var FileClass = newFileClass()

// fileMulticall is f.multicall(hash, pattern, fields...).
var fileMulticall = rtrpc.NewMethod("multicall", []string{"f.multicall"}, rtrpc.Retriever())

func newFileClass() *rtrpc.Class {
	c := rtrpc.NewClass("file")
	c.Register(FileKeyPath, []string{"f.path", "f.get_path"}, rtrpc.Retriever(), rtrpc.WithPostProcessors(rtrpc.ToString))
	c.Register(FileKeySize, []string{"f.size_bytes", "f.get_size_bytes"}, rtrpc.Retriever(), rtrpc.WithPostProcessors(rtrpc.ToInt))
	c.Register(FileKeySizeChunks, []string{"f.size_chunks", "f.get_size_chunks"}, rtrpc.Retriever(), rtrpc.WithPostProcessors(rtrpc.ToInt))
	c.Register(FileKeyCompletedChunks, []string{"f.completed_chunks", "f.get_completed_chunks"}, rtrpc.Retriever(), rtrpc.WithPostProcessors(rtrpc.ToInt))
	c.Register(FileKeyPriority, []string{"f.priority", "f.get_priority"}, rtrpc.Retriever(), rtrpc.WithPostProcessors(rtrpc.ToInt))
	c.Register(FileKeySetPriority, []string{"f.priority.set", "f.set_priority"})
	return c
}

// FileTarget is the rtorrent target string for file index of the torrent hash.
func FileTarget(hash string, index int) string {
	return hash + ":f" + strconv.Itoa(index)
}

// File is one file of a torrent.
type File struct {
	obj    *rtrpc.Object
	Target string
}

// NewFile returns file index of the torrent hash.
func NewFile(conn rtrpc.Conn, hash string, index int) *File {
	return &File{obj: rtrpc.NewObject(FileClass, conn), Target: FileTarget(hash, index)}
}

// Exec runs any registered file method against this file.
func (f *File) Exec(ctx context.Context, key string, args ...any) (any, error) {
	return f.obj.Exec(ctx, key, append([]any{f.Target}, args...)...)
}

// Path returns the path relative to the torrent directory.
func (f *File) Path(ctx context.Context) (string, error) {
	return execAs[string](ctx, f, FileKeyPath)
}

// Priority returns the download priority.
func (f *File) Priority(ctx context.Context) (int64, error) {
	return execAs[int64](ctx, f, FileKeyPriority)
}

// SetPriority sets one of PriorityOff, PriorityNormal or PriorityHigh.
func (f *File) SetPriority(ctx context.Context, prio int) error {
	_, err := f.Exec(ctx, FileKeySetPriority, prio)
	return err
}
