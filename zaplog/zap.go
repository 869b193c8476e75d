// Package zaplog provides a builder-pattern constructor for creating a
// logr.Logger implementation using Zap with some commonly-good defaults.
package zaplog

import (
	"io"
	"os"
	"strconv"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type (
	// Encoder is a symbolic link to zapcore.Encoder.
	Encoder = zapcore.Encoder
	// EncoderConfig is a symbolic link to zapcore.EncoderConfig.
	EncoderConfig = zapcore.EncoderConfig
	// LevelEncoder is a symbolic link to zapcore.LevelEncoder.
	LevelEncoder = zapcore.LevelEncoder

	// EncoderConfigOption represents a function that applies an option to the EncoderConfig.
	EncoderConfigOption func(*EncoderConfig)
	// EncoderCreator represents an Encoder constructor given a populated EncoderConfig.
	EncoderCreator func(EncoderConfig) Encoder
)

// JSONEncoderCreator is a symbolic link to zapcore.NewJSONEncoder.
func JSONEncoderCreator() EncoderCreator { return zapcore.NewJSONEncoder }

// ConsoleEncoderCreator is a symbolic link to zapcore.NewConsoleEncoder.
func ConsoleEncoderCreator() EncoderCreator { return zapcore.NewConsoleEncoder }

// ProductionEncoderConfig is a symbolic link to zap.NewProductionEncoderConfig().
func ProductionEncoderConfig() EncoderConfig { return zap.NewProductionEncoderConfig() }

// DevelopmentEncoderConfig is a symbolic link to zap.NewDevelopmentEncoderConfig().
func DevelopmentEncoderConfig() EncoderConfig { return zap.NewDevelopmentEncoderConfig() }

// LowercaseLevelEncoder is the default LevelEncoder; it extends the
// zapcore.LowercaseLevelEncoder by adding a "(v={V})" to all levels
// where {V} is the logr level.
func LowercaseLevelEncoder() LevelEncoder {
	return func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		str := l.String()
		if l < zap.DebugLevel {
			str = "debug"
		}
		if l <= zap.InfoLevel {
			str += "(v=" + strconv.Itoa(int(l*-1)) + ")"
		}
		enc.AppendString(str)
	}
}

// CapitalLevelEncoder extends the zapcore.CapitalLevelEncoder
// by adding a "(v={V})" to all levels where {V} is the logr level.
func CapitalLevelEncoder() LevelEncoder {
	return func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		str := l.CapitalString()
		if l < zap.DebugLevel {
			str = "DEBUG"
		}
		if l <= zap.InfoLevel {
			str += "(v=" + strconv.Itoa(int(l*-1)) + ")"
		}
		enc.AppendString(str)
	}
}

// NewZap returns a new *Builder using the default configuration.
func NewZap() *Builder {
	return (&Builder{
		outW:           os.Stdout,
		encoderCfg:     ProductionEncoderConfig(),
		encoderCreator: JSONEncoderCreator(),
	}).WithLevelEncoder(LowercaseLevelEncoder())
}

// Builder is a builder-pattern struct for building a logr.Logger
// using go.uber.org/zap.
//
// The default configuration uses the production encoder configuration,
// writes JSON, includes the V log levels in the level name, and logs
// to os.Stdout.
type Builder struct {
	outW              io.Writer
	encoderCfg        EncoderConfig
	encoderCfgOptions []EncoderConfigOption
	encoderCreator    EncoderCreator
	level             zapcore.Level
	opts              []zap.Option
}

// LogTo specifies where to write logs. If you want to write to multiple
// destinations, use io.MultiWriter or preferably, zapcore.NewMultiWriteSyncer.
//
// A zapcore.WriteSyncer shall be passed in if possible, otherwise a no-op Sync
// method will be used internally. The resulting WriteSyncer is automatically
// locked using zapcore.Lock, so it can be used in a thread-safe manner.
//
// Defaults to os.Stdout.
//
// A call to this function overwrites any previous value.
func (b *Builder) LogTo(w io.Writer) *Builder {
	b.outW = w
	return b
}

// WithEncoderConfig lets the user fine-tune how to encode/format logs.
//
// Defaults to zap.NewProductionEncoderConfig().
//
// A call to this function overwrites any previous value.
func (b *Builder) WithEncoderConfig(cfg EncoderConfig) *Builder {
	b.encoderCfg = cfg
	return b
}

// WithEncoderConfigOption registers a function that mutates the registered
// EncoderConfig from WithEncoderConfig at Build() time. This is useful
// for "patching" an individual part of the EncoderConfig, instead of
// overwriting everything.
//
// A call to this function appends to the list of previous values.
func (b *Builder) WithEncoderConfigOption(opts ...EncoderConfigOption) *Builder {
	b.encoderCfgOptions = append(b.encoderCfgOptions, opts...)
	return b
}

// WithEncoderCreator uses a specific EncoderCreator to create the encoder.
//
// Defaults to JSONEncoderCreator().
//
// A call to this function overwrites any previous value.
func (b *Builder) WithEncoderCreator(encoderCreator EncoderCreator) *Builder {
	b.encoderCreator = encoderCreator
	return b
}

// WithLevelEncoder customizes how the log level is encoded.
//
// The default is LowercaseLevelEncoder.
//
// A call to this function overwrites any previous value.
func (b *Builder) WithLevelEncoder(levelEnc LevelEncoder) *Builder {
	return b.WithEncoderConfigOption(func(ec *EncoderConfig) {
		ec.EncodeLevel = levelEnc
	})
}

// LogUpto specifies the logr level that shall be used. All log messages from
// a logr.Logger with a log level _less than or equal to_ logrLevel will be output.
//
// To convert between zap and logr log levels, multiply by -1 like follows:
//
//	Level	Zap		Logr
//			-N		N
//	Debug	-1		1
//	Info	0		0		(default)
//
// The default level of 0 means that logr.Info and logr.Error calls will
// be output, unless logr.Logger.V() is used to raise the level.
//
// According to logr.Logger, "it's illegal to pass a log
// level less than zero.", hence, negative logrLevel values are disallowed.
//
// A call to this function overwrites any previous value.
func (b *Builder) LogUpto(logrLevel int8) *Builder {
	if logrLevel >= 0 {
		b.level = zapcore.Level(-1 * logrLevel)
	}
	return b
}

// WithOptions appends options for configuring zap.
//
// A call to this function appends to the list of previous values.
func (b *Builder) WithOptions(opts ...zap.Option) *Builder {
	b.opts = append(b.opts, opts...)
	return b
}

// Console is a shorthand for:
//
//	WithEncoderCreator(ConsoleEncoderCreator()).
//	WithLevelEncoder(CapitalLevelEncoder())
//
// A call to this function overwrites any previous value.
func (b *Builder) Console() *Builder {
	return b.WithEncoderCreator(ConsoleEncoderCreator()).
		WithLevelEncoder(CapitalLevelEncoder())
}

// NoTimestamps drops the timestamp from every log line. Together with
// NoStacktraceOnError this makes the output deterministic, which is
// what examples and golden tests need.
//
// A call to this function overwrites any previous value.
func (b *Builder) NoTimestamps() *Builder {
	return b.WithEncoderConfigOption(func(ec *EncoderConfig) {
		ec.TimeKey = ""
	})
}

// NoStacktraceOnError makes the logger not output a stack trace when
// an error is logged. This is done by moving the stack trace level
// to only be output for the DPanicLevel or higher (zap) levels.
//
// A call to this function overwrites any previous value.
func (b *Builder) NoStacktraceOnError() *Builder {
	return b.WithOptions(zap.AddStacktrace(zap.DPanicLevel))
}

// Example is a shorthand for
//
//	NoTimestamps().
//	NoStacktraceOnError()
//
// A call to this function overwrites any previous value.
func (b *Builder) Example() *Builder {
	return b.NoTimestamps().NoStacktraceOnError()
}

// Build builds the logr.Logger.
func (b *Builder) Build() logr.Logger {
	cfg := b.encoderCfg
	for _, opt := range b.encoderCfgOptions {
		opt(&cfg)
	}

	ws := zapcore.Lock(zapcore.AddSync(b.outW))
	core := zapcore.NewCore(b.encoderCreator(cfg), ws, zap.NewAtomicLevelAt(b.level))

	opts := append([]zap.Option{zap.ErrorOutput(ws)}, b.opts...)
	return zapr.NewLogger(zap.New(core, opts...))
}
