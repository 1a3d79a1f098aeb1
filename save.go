package mzcache

import (
	"context"
	"os"

	"github.com/hupe1980/mzcache/metadata"
	"github.com/hupe1980/mzcache/model"
	"github.com/hupe1980/mzcache/persistence"
	"github.com/hupe1980/mzcache/writer"
)

// Save writes exp as a run: the cache file basename+".cached" first, then
// the metadata sidecar basename. Both files are replaced atomically.
func Save(exp *model.Experiment, basename string, optFns ...Option) error {
	o := applyOptions(optFns)

	meta := metadata.FromModel(exp)
	err := metadata.Validate(meta)
	if err == nil {
		err = writer.New(writer.WithLogger(o.logger.Logger)).Write(exp, CachePath(basename))
	}
	if err == nil {
		err = metadata.SaveSidecar(basename, meta, o.codec)
	}
	if err == nil {
		o.registry.Forget(CachePath(basename))
	}
	o.logger.LogSave(context.Background(), basename, exp.NumSpectra(), exp.NumChromatograms(), err)
	return err
}

func openCacheFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &persistence.IOError{Op: "open", Path: path, Offset: -1, Err: err}
	}
	return f, nil
}
