package errors

import (
	"fmt"
	"net/http"
	"sync"

	"google.golang.org/grpc/codes"
)

// registry 保存所有已注册的错误码，code 必须唯一。
var registry = struct {
	sync.RWMutex
	byCode map[int]*Errno
}{byCode: make(map[int]*Errno)}

// Register adds e to the registry. A duplicate code is a programming error and
// panics at init time.
func Register(e *Errno) *Errno {
	registry.Lock()
	defer registry.Unlock()

	if prev, ok := registry.byCode[e.Code]; ok {
		panic(fmt.Sprintf("errno code %d already registered: %s", e.Code, prev.MessageEN))
	}
	registry.byCode[e.Code] = e
	return e
}

// Lookup returns the Errno registered for code.
func Lookup(code int) (*Errno, bool) {
	registry.RLock()
	defer registry.RUnlock()
	e, ok := registry.byCode[code]
	return e, ok
}

// kind 把错误类别映射到 HTTP 状态码和 gRPC 码。
type kind struct {
	category int
	status   int
	grpc     codes.Code
}

var (
	kindRequest  = kind{CategoryRequest, http.StatusBadRequest, codes.InvalidArgument}
	kindNotFound = kind{CategoryResource, http.StatusNotFound, codes.NotFound}
	kindInternal = kind{CategoryInternal, http.StatusInternalServerError, codes.Internal}
	// 上游服务失败对调用方而言是 502
	kindNetwork = kind{CategoryNetwork, http.StatusBadGateway, codes.Unavailable}
	kindTimeout = kind{CategoryTimeout, http.StatusGatewayTimeout, codes.DeadlineExceeded}
)

func (k kind) register(service, sequence int, en, zh string) *Errno {
	switch {
	case service < 0 || service > 99:
		panic(fmt.Sprintf("errors: service code must be 0-99, got %d", service))
	case sequence < 0 || sequence > 999:
		panic(fmt.Sprintf("errors: sequence must be 0-999, got %d", sequence))
	case en == "":
		panic("errors: english message is required")
	}
	return Register(New(MakeCode(service, k.category, sequence), k.status, k.grpc, en, zh))
}

// NewRequestErr registers a 400 error.
func NewRequestErr(service, sequence int, en, zh string) *Errno {
	return kindRequest.register(service, sequence, en, zh)
}

// NewNotFoundErr registers a 404 error.
func NewNotFoundErr(service, sequence int, en, zh string) *Errno {
	return kindNotFound.register(service, sequence, en, zh)
}

// NewInternalErr registers a 500 error.
func NewInternalErr(service, sequence int, en, zh string) *Errno {
	return kindInternal.register(service, sequence, en, zh)
}

// NewNetworkErr registers a 502 error for failing upstream providers.
func NewNetworkErr(service, sequence int, en, zh string) *Errno {
	return kindNetwork.register(service, sequence, en, zh)
}

// NewTimeoutErr registers a 504 error.
func NewTimeoutErr(service, sequence int, en, zh string) *Errno {
	return kindTimeout.register(service, sequence, en, zh)
}
