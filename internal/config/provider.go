// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilnbuild/kiln/pkg/types"
)

// ErrInvalidLoadOptions is the sentinel wrapped by InvalidLoadOptionsError.
var ErrInvalidLoadOptions = errors.New("invalid load options")

type (
	// LoadOptions are the explicit inputs of a configuration load. Empty
	// fields fall back to the platform defaults.
	LoadOptions struct {
		// ConfigFilePath forces a specific file.
		ConfigFilePath types.FilesystemPath
		// ConfigDirPath replaces ConfigDir().
		ConfigDirPath types.FilesystemPath
		// BaseDir is searched for config.cue after the config directory.
		BaseDir types.FilesystemPath
	}

	// InvalidLoadOptionsError lists the LoadOptions fields that are set but
	// blank.
	InvalidLoadOptionsError struct {
		FieldErrors []error
	}

	// Provider loads configuration.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Config, error)
	}

	fileProvider struct{}
)

// NewProvider returns the file-and-environment Provider.
func NewProvider() Provider {
	return &fileProvider{}
}

func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	cfg, _, err := loadWithOptions(ctx, opts)
	return cfg, err
}

// Validate rejects whitespace-only paths.
func (o LoadOptions) Validate() error {
	var errs []error
	for _, p := range []types.FilesystemPath{o.ConfigFilePath, o.ConfigDirPath, o.BaseDir} {
		if p != "" {
			if err := p.Validate(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if len(errs) > 0 {
		return &InvalidLoadOptionsError{FieldErrors: errs}
	}
	return nil
}

func (e *InvalidLoadOptionsError) Error() string {
	return fmt.Sprintf("invalid load options: %d field error(s)", len(e.FieldErrors))
}

func (e *InvalidLoadOptionsError) Unwrap() error { return ErrInvalidLoadOptions }

// LoadWithPath is Load that also reports which file was read.
func LoadWithPath(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	if err := opts.Validate(); err != nil {
		return nil, "", err
	}
	return loadWithOptions(ctx, opts)
}
