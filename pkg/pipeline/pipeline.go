// Package pipeline runs one path-computation graph request end to end.
//
// This package implements the read → build → report flow shared by the CLI
// and the HTTP server, so both entry points answer a request the same way.
//
// # Architecture
//
// A request passes through three stages:
//
//  1. Read: load the topology layer for the service type from a store
//  2. Build: expand constraints and run [builder.Build]
//  3. Report: fill in a [Result] describing success or failure
//
// Fatal failures never produce a graph. The Result carries the response code,
// message and local cause a service handler returns to its caller.
//
// # Usage
//
//	runner := pipeline.NewRunner(st, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    ServiceFormat: service.FormatEthernet,
//	    ServiceRate:   100,
//	    AEnd:          builder.Endpoint{Node: "XPDR-A1"},
//	    ZEnd:          builder.Endpoint{Node: "XPDR-C1"},
//	})
//	if err != nil {
//	    fmt.Println(res.LocalCause, errors.UserMessage(err))
//	}
package pipeline

import (
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/matzehuels/pcegraph/pkg/builder"
	"github.com/matzehuels/pcegraph/pkg/constraints"
	"github.com/matzehuels/pcegraph/pkg/errors"
	"github.com/matzehuels/pcegraph/pkg/graph"
	"github.com/matzehuels/pcegraph/pkg/service"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultXponderWavelengths is the size of the wavelength grid an
	// in-service xponder offers.
	DefaultXponderWavelengths = 96

	// DefaultClientlessOTU accepts unmapped xponder network ports for OTU
	// requests.
	DefaultClientlessOTU = true
)

// validate is the shared struct validator.
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// =============================================================================
// Options - Request Configuration
// =============================================================================

// Options describes one graph request.
// This struct supports JSON serialization for API requests.
type Options struct {
	RequestID     string              `json:"request_id,omitempty" validate:"omitempty,max=128"`
	ServiceFormat service.Format      `json:"service_format" validate:"required,oneof=Ethernet OC OTU ODU"`
	ServiceRate   uint64              `json:"service_rate" validate:"required,gt=0"`
	AEnd          builder.Endpoint    `json:"a_end"`
	ZEnd          builder.Endpoint    `json:"z_end"`
	Constraints   constraints.Request `json:"constraints,omitempty"`

	// Network overrides the topology layer read from the store. By default
	// it follows the service type.
	Network string `json:"network,omitempty"`

	XponderWavelengths int   `json:"xponder_wavelengths,omitempty" validate:"omitempty,min=1,max=768"`
	ClientlessOTU      *bool `json:"clientless_otu,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults checks the request and fills in defaults.
// It is safe to call more than once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := validate.Struct(o); err != nil {
		return errors.New(errors.ErrCodeInvalidRequest, "%v", formatValidationError(err))
	}
	if o.Network != "" {
		if err := errors.ValidateNetworkName(o.Network); err != nil {
			return errors.New(errors.ErrCodeInvalidRequest, "Network: %s", errors.UserMessage(err))
		}
	}

	if o.RequestID == "" {
		o.RequestID = uuid.NewString()
	}
	if o.XponderWavelengths == 0 {
		o.XponderWavelengths = DefaultXponderWavelengths
	}
	if o.ClientlessOTU == nil {
		v := DefaultClientlessOTU
		o.ClientlessOTU = &v
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// request converts the options into a builder request.
func (o *Options) request() builder.Request {
	return builder.Request{
		ServiceFormat: o.ServiceFormat,
		ServiceRate:   o.ServiceRate,
		AEnd:          o.AEnd,
		ZEnd:          o.ZEnd,
	}
}

func (o *Options) builderConfig() builder.Config {
	return builder.Config{
		XponderWavelengths:  o.XponderWavelengths,
		RejectClientlessOTU: !*o.ClientlessOTU,
		Logger:              o.Logger,
	}
}

// formatValidationError turns the first validator failure into a readable
// message keyed by the JSON-ish field path.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	e := verrs[0]
	field := strings.TrimPrefix(e.Namespace(), "Options.")
	switch e.Tag() {
	case "required":
		return fmt.Errorf("%s: field is required", field)
	case "oneof":
		return fmt.Errorf("%s: must be one of [%s], got %v", field, e.Param(), e.Value())
	case "gt":
		return fmt.Errorf("%s: must be greater than %s", field, e.Param())
	case "min":
		return fmt.Errorf("%s: must be at least %s", field, e.Param())
	case "max":
		return fmt.Errorf("%s: must be at most %s", field, e.Param())
	default:
		return fmt.Errorf("%s: failed %s validation", field, e.Tag())
	}
}

// =============================================================================
// Result - Response Channel
// =============================================================================

// ResponseCode is the coarse outcome of a request.
type ResponseCode string

const (
	ResponseOK     ResponseCode = "OK"
	ResponseFailed ResponseCode = "FAILED"
)

// Response messages.
const (
	MessageSuccess = "Path is calculated by PCE"
	MessageFailure = "No path available by PCE"
)

// LocalCause explains a failed request to the service handler.
type LocalCause string

// The latency, OSNR and hard-include causes are set by the path search that
// consumes the graph; the graph build only ever reports the others.
const (
	CauseNone           LocalCause = "NONE"
	CauseTooHighLatency LocalCause = "TOO_HIGH_LATENCY"
	CauseOutOfSpecOSNR  LocalCause = "OUT_OF_SPEC_OSNR"
	CauseNoPathExists   LocalCause = "NO_PATH_EXISTS"
	CauseIntProblem     LocalCause = "INT_PROBLEM"
	CauseHDNodeInclude  LocalCause = "HD_NODE_INCLUDE"
)

// CauseFor maps an error to the local cause reported for it.
func CauseFor(err error) LocalCause {
	if err == nil {
		return CauseNone
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeEndpointUnresolved, errors.ErrCodeEmptyGraph:
		return CauseNoPathExists
	default:
		return CauseIntProblem
	}
}

// Result is the outcome of a request.
type Result struct {
	RequestID     string         `json:"request_id"`
	Success       bool           `json:"success"`
	ResponseCode  ResponseCode   `json:"response_code"`
	Message       string         `json:"message"`
	LocalCause    LocalCause     `json:"local_cause"`
	ServiceType   service.Type   `json:"service_type,omitempty"`
	Rate          uint64         `json:"rate"`
	ServiceFormat service.Format `json:"service_format"`

	// Error is the user-facing failure reason.
	Error string `json:"error,omitempty"`

	// Graph is the built graph. It is nil unless Success is set.
	Graph *graph.Graph `json:"-"`

	// Report describes what the builder kept and dropped.
	Report builder.Report `json:"-"`

	Stats Stats `json:"stats"`
}

// Stats contains request execution statistics.
type Stats struct {
	Network   string        `json:"network"`
	NodeCount int           `json:"nodes"`
	LinkCount int           `json:"links"`
	ReadTime  time.Duration `json:"read_time"`
	BuildTime time.Duration `json:"build_time"`
}

func newResult(opts *Options) *Result {
	return &Result{
		RequestID:     opts.RequestID,
		Rate:          opts.ServiceRate,
		ServiceFormat: opts.ServiceFormat,
	}
}

func (r *Result) succeed(g *graph.Graph) {
	r.Success = true
	r.ResponseCode = ResponseOK
	r.Message = MessageSuccess
	r.LocalCause = CauseNone
	r.Graph = g
	r.Stats.NodeCount = g.NodeCount()
	r.Stats.LinkCount = g.LinkCount()
}

func (r *Result) fail(err error) {
	r.Success = false
	r.ResponseCode = ResponseFailed
	r.Message = MessageFailure
	r.LocalCause = CauseFor(err)
	r.Error = errors.UserMessage(err)
	r.Graph = nil
}
