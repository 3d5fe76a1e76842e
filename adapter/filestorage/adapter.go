package filestorage

import (
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Adapter keeps uploaded file blobs on the local filesystem while they wait
// to be processed.
type Adapter struct {
	dir    string
	logger *zap.Logger
}

type Option func(*Adapter)

func WithDir(dir string) Option {
	return func(a *Adapter) {
		a.dir = dir
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

func New(opts ...Option) (*Adapter, error) {
	a := &Adapter{
		dir:    os.TempDir(),
		logger: zap.NewNop(),
	}

	for _, o := range opts {
		o(a)
	}

	if _, err := os.Stat(a.dir); err != nil {
		return nil, err
	}

	a.logger.Sugar().With(
		"directory", a.dir,
	).Info("init filestorage adapter")

	return a, nil
}

func (a *Adapter) Write(filename string, data io.Reader) error {
	f, err := os.Create(filepath.Join(a.dir, filename))
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return err
	}

	return nil
}

func (a *Adapter) Exists(filename string) (bool, error) {
	_, err := os.Stat(filepath.Join(a.dir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (a *Adapter) Read(filename string) (io.ReadSeekCloser, error) {
	return os.Open(filepath.Join(a.dir, filename))
}

func (a *Adapter) Delete(filename string) error {
	return os.Remove(filepath.Join(a.dir, filename))
}
