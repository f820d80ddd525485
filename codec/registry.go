/*
NAME
  registry.go

DESCRIPTION
  registry.go maintains the set of codec back-ends available at runtime,
  looked up by name, so the decoder/encoder orchestrators never import a
  specific codec implementation directly.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package codec

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/ausocean/avif"
)

var (
	registryMu sync.RWMutex
	registry   = map[string]Backend{}
)

// Register adds b to the registry under b.Name, replacing any existing
// entry of the same name. Back-ends register themselves from an init()
// function in the package that implements them (cgo bindings, a test
// reference codec, ...), keeping this package free of build tags.
func Register(b Backend) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[b.Name] = b
}

// Lookup returns the named back-end, or an error wrapping
// avif.ErrNoCodecAvailable if none is registered under that name.
func Lookup(name string) (Backend, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	b, ok := registry[name]
	if !ok {
		return Backend{}, errors.Wrapf(avif.ErrNoCodecAvailable(), "codec: no back-end registered as %q", name)
	}
	return b, nil
}

// Names returns the currently registered back-end names.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
