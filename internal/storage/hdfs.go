package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sync"

	"github.com/colinmarc/hdfs/v2"
	"go.uber.org/zap"
)

// HDFS is a FileSystem backed by a Hadoop namenode. The namenode is dialed
// on the first Create or Open, so an unreachable cluster surfaces as a
// write error of the run rather than a startup error.
type HDFS struct {
	addr   string
	user   string
	logger *zap.Logger

	mu     sync.Mutex
	client *hdfs.Client
}

// NewHDFS returns a filesystem for the namenode at addr (host:port), used as
// user. It does not connect.
func NewHDFS(addr, user string, logger *zap.Logger) *HDFS {
	return &HDFS{addr: addr, user: user, logger: logger}
}

func (h *HDFS) connect() (*hdfs.Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.client != nil {
		return h.client, nil
	}
	client, err := hdfs.NewClient(hdfs.ClientOptions{
		Addresses: []string{h.addr},
		User:      h.user,
	})
	if err != nil {
		h.logger.Error("failed to connect to HDFS", zap.String("addr", h.addr), zap.String("user", h.user), zap.Error(err))
		return nil, fmt.Errorf("connect to hdfs %s: %w", h.addr, err)
	}
	h.logger.Debug("connected to HDFS", zap.String("addr", h.addr), zap.String("user", h.user))
	h.client = client
	return client, nil
}

// Create replaces whatever is at name. HDFS refuses to create over an
// existing file, so the old file is removed first.
func (h *HDFS) Create(name string) (io.WriteCloser, error) {
	client, err := h.connect()
	if err != nil {
		return nil, err
	}
	if err := client.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("hdfs remove %s: %w", name, err)
	}
	if err := client.MkdirAll(path.Dir(name), 0o755); err != nil {
		return nil, fmt.Errorf("hdfs mkdir %s: %w", path.Dir(name), err)
	}
	w, err := client.Create(name)
	if err != nil {
		return nil, fmt.Errorf("hdfs create %s: %w", name, err)
	}
	return w, nil
}

func (h *HDFS) Open(name string) (File, error) {
	client, err := h.connect()
	if err != nil {
		return nil, err
	}
	r, err := client.Open(name)
	if err != nil {
		return nil, fmt.Errorf("hdfs open %s: %w", name, err)
	}
	return r, nil
}

// Close releases the namenode connection, if one was made.
func (h *HDFS) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.client == nil {
		return nil
	}
	err := h.client.Close()
	h.client = nil
	return err
}
