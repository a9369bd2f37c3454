package randomization

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

// A Method names one of the allocation algorithms.
type Method string

// The supported allocation methods.
const (
	MethodSR           Method = "SR"
	MethodSBR          Method = "SBR"
	MethodSBUD         Method = "SBUD"
	MethodMinimization Method = "Minimization"
)

// ErrUnknownMethod is returned when a method name is not recognized.
var ErrUnknownMethod = errors.New("unknown randomization method")

// Methods lists every supported method.
func Methods() []Method {
	return []Method{MethodSR, MethodSBR, MethodSBUD, MethodMinimization}
}

// ParseMethod resolves a method name, ignoring case.
func ParseMethod(name string) (Method, error) {
	for _, m := range Methods() {
		if strings.EqualFold(name, string(m)) {
			return m, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, name)
}

// Options carries the parameters of the allocation methods. Methods ignore
// the fields they do not use.
type Options struct {
	BlockSize int
	P         float64
	UseData   bool
}

// New creates the strategy of a method, drawing from rng.
func New(method Method, rng *rand.Rand, opts Options) (Strategy, error) {
	switch method {
	case MethodSR:
		return NewSimpleRandom(rng), nil
	case MethodSBR:
		return NewStratifiedBlock(rng, opts.BlockSize), nil
	case MethodSBUD:
		return NewStratifiedUrn(rng, opts.BlockSize), nil
	case MethodMinimization:
		return NewMinimization(rng, opts.P, opts.UseData), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
}
