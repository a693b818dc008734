// Package device runs the basis pullbacks as OCCA kernels. A Device
// satisfies basisvalues.Transforms, so a BasisValues built with
// basisvalues.WithTransforms(dev) evaluates its physical tables on the
// configured backend.
package device

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	"github.com/notargets/DGBasis/config"
	"github.com/notargets/DGBasis/utils"
	"github.com/notargets/gocca"
)

var ErrNoDevice = errors.New("no OCCA device available")

const serialProps = `{"mode": "Serial"}`

type Device struct {
	occa    *gocca.OCCADevice
	mu      sync.Mutex
	kernels map[string]*gocca.OCCAKernel // keyed by source
	logger  *slog.Logger
}

// Open creates the device named by cfg.DeviceMode, falling back to Serial
// when that backend is unavailable
func Open(cfg config.Config) (*Device, error) {
	logger := slog.Default().With(slog.String("component", "device"))
	backends := []string{cfg.DeviceProps()}
	if backends[0] != serialProps {
		backends = append(backends, serialProps)
	}
	var errs []error
	for _, props := range backends {
		occa, err := gocca.NewDevice(props)
		if err != nil {
			logger.Warn("device unavailable", slog.String("props", props), slog.Any("error", err))
			errs = append(errs, err)
			continue
		}
		logger.Info("created device", slog.String("mode", occa.Mode()))
		return &Device{
			occa:    occa,
			kernels: make(map[string]*gocca.OCCAKernel),
			logger:  logger,
		}, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrNoDevice, errors.Join(errs...))
}

func (d *Device) Mode() string { return d.occa.Mode() }

// Free releases the compiled kernels and the device
func (d *Device) Free() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, k := range d.kernels {
		k.Free()
	}
	d.kernels = nil
	d.occa.Free()
}

// kernel compiles source once per distinct source text
func (d *Device) kernel(source, name string) (*gocca.OCCAKernel, error) {
	if k, ok := d.kernels[source]; ok {
		return k, nil
	}
	var (
		k   *gocca.OCCAKernel
		err error
	)
	if d.occa.Mode() == "OpenMP" {
		// OpenMP builds without -O3 unless asked
		props := gocca.JsonParse(`{"compiler_flags": "-O3"}`)
		defer props.Free()
		k, err = d.occa.BuildKernelFromString(source, name, props)
	} else {
		k, err = d.occa.BuildKernelFromString(source, name, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("build kernel %s: %w", name, err)
	}
	if k == nil {
		return nil, fmt.Errorf("build kernel %s returned nil", name)
	}
	d.logger.Debug("built kernel", slog.String("kernel", name))
	d.kernels[source] = k
	return k, nil
}

// run copies inputs to the device, runs the kernel with the inputs followed
// by an output buffer, and copies the result into out
func (d *Device) run(source, name string, out *utils.Array, inputs ...*utils.Array) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.kernels == nil {
		return fmt.Errorf("kernel %s on freed device: %w", name, ErrNoDevice)
	}
	if out.Size() == 0 {
		return nil
	}
	k, err := d.kernel(source, name)
	if err != nil {
		return err
	}
	args := make([]interface{}, 0, len(inputs)+1)
	for _, in := range inputs {
		mem := d.occa.Malloc(int64(in.Size()*8), unsafe.Pointer(&in.Data[0]), nil)
		defer mem.Free()
		args = append(args, mem)
	}
	bytes := int64(out.Size() * 8)
	outMem := d.occa.Malloc(bytes, nil, nil)
	defer outMem.Free()
	args = append(args, outMem)

	if err = k.RunWithArgs(args...); err != nil {
		return fmt.Errorf("run kernel %s: %w", name, err)
	}
	d.occa.Finish()
	outMem.CopyTo(unsafe.Pointer(&out.Data[0]), bytes)
	return nil
}
