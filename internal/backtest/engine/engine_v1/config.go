package engine

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/stockbot/internal/strategy"
	"github.com/rxtech-lab/stockbot/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultInitialCapital is the starting cash of the sample configuration.
const DefaultInitialCapital = 10000

type BacktestEngineV1Config struct {
	InitialCapital float64                    `yaml:"initial_capital" json:"initial_capital" validate:"gte=0" jsonschema:"title=Initial Capital,description=Starting cash of every run in USD,minimum=0"`
	StartTime      optional.Option[time.Time] `yaml:"start_time" json:"start_time,omitempty" jsonschema:"title=Start Time,description=Optional first date to simulate"`
	EndTime        optional.Option[time.Time] `yaml:"end_time" json:"end_time,omitempty" jsonschema:"title=End Time,description=Optional last date to simulate"`
	Strategies     []string                   `yaml:"strategies" json:"strategies,omitempty" validate:"dive,required" jsonschema:"title=Strategies,description=Registered strategy names to run. Empty runs every registered strategy"`
	WriteAnnotated bool                       `yaml:"write_annotated" json:"write_annotated" jsonschema:"title=Write Annotated,description=Write the price file with its rsi and ma columns next to the results"`
	WriteJournal   bool                       `yaml:"write_journal" json:"write_journal" jsonschema:"title=Write Journal,description=Export the trades of each run to trades.parquet"`
}

// configYAML is the on-disk shape of BacktestEngineV1Config.
type configYAML struct {
	InitialCapital float64    `yaml:"initial_capital"`
	StartTime      *time.Time `yaml:"start_time,omitempty"`
	EndTime        *time.Time `yaml:"end_time,omitempty"`
	Strategies     []string   `yaml:"strategies"`
	WriteAnnotated bool       `yaml:"write_annotated"`
	WriteJournal   bool       `yaml:"write_journal"`
}

// UnmarshalYAML implements custom unmarshaling for BacktestEngineV1Config.
// Keys missing from the document keep their current value.
func (c *BacktestEngineV1Config) UnmarshalYAML(value *yaml.Node) error {
	config := c.toYAML()
	if err := value.Decode(&config); err != nil {
		return err
	}

	c.InitialCapital = config.InitialCapital
	c.Strategies = config.Strategies
	c.WriteAnnotated = config.WriteAnnotated
	c.WriteJournal = config.WriteJournal
	c.StartTime = optional.None[time.Time]()
	c.EndTime = optional.None[time.Time]()

	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}

	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}

	return nil
}

// MarshalYAML implements custom marshaling for BacktestEngineV1Config
func (c BacktestEngineV1Config) MarshalYAML() (any, error) {
	return c.toYAML(), nil
}

func (c BacktestEngineV1Config) toYAML() configYAML {
	config := configYAML{
		InitialCapital: c.InitialCapital,
		Strategies:     c.Strategies,
		WriteAnnotated: c.WriteAnnotated,
		WriteJournal:   c.WriteJournal,
	}

	if c.StartTime.IsSome() {
		start := c.StartTime.Unwrap()
		config.StartTime = &start
	}

	if c.EndTime.IsSome() {
		end := c.EndTime.Unwrap()
		config.EndTime = &end
	}

	return config
}

// Validate checks the field constraints and that the time range is not inverted.
func (c *BacktestEngineV1Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid backtest configuration", err)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.EndTime.Unwrap().Before(c.StartTime.Unwrap()) {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "end_time %s is before start_time %s",
			c.EndTime.Unwrap().Format(time.DateOnly), c.StartTime.Unwrap().Format(time.DateOnly))
	}

	return nil
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeOf(optional.Option[time.Time]{}) {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

func TestConfig(startTime time.Time, endTime time.Time, strategies ...string) BacktestEngineV1Config {
	return BacktestEngineV1Config{
		InitialCapital: DefaultInitialCapital,
		StartTime:      optional.Some(startTime),
		EndTime:        optional.Some(endTime),
		Strategies:     strategies,
		WriteAnnotated: true,
		WriteJournal:   true,
	}
}

// EmptyConfig returns a BacktestEngineV1Config with default values
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		InitialCapital: DefaultInitialCapital,
		StartTime:      optional.None[time.Time](),
		EndTime:        optional.None[time.Time](),
		Strategies:     []string{strategy.LongHoldName, strategy.RsiAndMovingAverageName, strategy.MomentumAndVolumeName},
		WriteAnnotated: true,
		WriteJournal:   true,
	}
}
