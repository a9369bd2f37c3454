package simulation

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/sarchlab/trialsim/randomization"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every configuration error.
var ErrInvalidConfig = errors.New("invalid simulation config")

// Config describes a batch of simulated platform trials.
type Config struct {
	// N is the number of patients of a trial.
	N int `yaml:"n" validate:"gt=0"`

	// J is the number of binary covariates.
	J int `yaml:"j" validate:"gt=0"`

	// KInit is the number of experimental arms open from the start.
	KInit int `yaml:"k_init" validate:"gte=1"`

	// KNew is the number of experimental arms added at TimeAdd.
	KNew int `yaml:"k_new" validate:"gte=0"`

	// TimeAdd is the enrollment fraction at which the new arms open.
	TimeAdd float64 `yaml:"time_add" validate:"gt=0,lt=1"`

	Method    randomization.Method `yaml:"method" validate:"required,method"`
	BlockSize int                  `yaml:"block_size" validate:"gt=0"`
	P         float64              `yaml:"p" validate:"gt=0,lt=1"`

	// Ratio holds the phase-2 allocation weights, control first.
	Ratio []int `yaml:"ratio" validate:"required,dive,gt=0"`

	// UseData lets minimization keep the phase-1 counts in phase 2.
	UseData bool `yaml:"use_data"`

	Sims int   `yaml:"sims" validate:"gt=0"`
	Seed int64 `yaml:"seed" validate:"gt=0"`

	// Workers bounds the number of replicates run at the same time. Zero
	// uses GOMAXPROCS.
	Workers int `yaml:"workers" validate:"gte=0"`
}

// DefaultConfig returns a three-arm trial that adds one arm halfway.
func DefaultConfig() Config {
	return Config{
		N:         200,
		J:         3,
		KInit:     2,
		KNew:      1,
		TimeAdd:   0.5,
		Method:    randomization.MethodSR,
		BlockSize: 6,
		P:         0.8,
		Ratio:     []int{1, 1, 1, 1},
		Sims:      1000,
		Seed:      1,
	}
}

var configValidate *validator.Validate

func init() {
	configValidate = validator.New()
	_ = configValidate.RegisterValidation("method", validateMethod)
}

func validateMethod(fl validator.FieldLevel) bool {
	_, err := randomization.ParseMethod(fl.Field().String())
	return err == nil
}

// NumArms returns the number of arms after the expansion, control included.
func (c Config) NumArms() int {
	return c.KInit + c.KNew + 1
}

// N1 returns the number of patients enrolled before the expansion.
func (c Config) N1() int {
	return randomization.ArmAdditionPoint(c.N, c.TimeAdd)
}

// Validate checks the field ranges and the rules that relate fields to one
// another.
func (c Config) Validate() error {
	err := configValidate.Struct(c)
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Tag() == "method" {
					return fmt.Errorf("%w: %w: %q",
						ErrInvalidConfig, randomization.ErrUnknownMethod, c.Method)
				}
			}
		}

		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	method, _ := randomization.ParseMethod(string(c.Method))

	if len(c.Ratio) != c.NumArms() {
		return fmt.Errorf("%w: ratio has %d entries, want k_init+k_new+1 = %d",
			ErrInvalidConfig, len(c.Ratio), c.NumArms())
	}

	n1 := c.N1()
	if n1 < 1 || n1 >= c.N {
		return fmt.Errorf("%w: floor(n*time_add) = %d must be in [1, %d)",
			ErrInvalidConfig, n1, c.N)
	}

	if method == randomization.MethodSBR || method == randomization.MethodSBUD {
		if c.BlockSize%(c.KInit+1) != 0 {
			return fmt.Errorf("%w: block size %d is not a multiple of %d arms",
				ErrInvalidConfig, c.BlockSize, c.KInit+1)
		}
	}

	if method == randomization.MethodSBUD {
		sum := 0
		for _, w := range c.Ratio {
			sum += w
		}

		if c.BlockSize < sum {
			return fmt.Errorf("%w: block size %d is smaller than the ratio sum %d",
				ErrInvalidConfig, c.BlockSize, sum)
		}
	}

	return nil
}

// Normalized returns a copy whose method name is in canonical form.
func (c Config) Normalized() Config {
	method, err := randomization.ParseMethod(string(c.Method))
	if err == nil {
		c.Method = method
	}

	c.Ratio = append([]int(nil), c.Ratio...)

	return c
}

// Phases splits the trial at the arm addition point.
func (c Config) Phases() []randomization.Phase {
	return randomization.SplitPhases(c.N, c.TimeAdd, c.KInit, c.Ratio)
}

// Options returns the parameters of the allocation method.
func (c Config) Options() randomization.Options {
	return randomization.Options{
		BlockSize: c.BlockSize,
		P:         c.P,
		UseData:   c.UseData,
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
