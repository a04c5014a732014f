package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// OK represents a successful operation.
var OK = Register(New(0, http.StatusOK, codes.OK, "Success", "成功"))

// Request errors (category 01)
var (
	ErrBadRequest       = Register(New(MakeCode(ServiceCommon, CategoryRequest, 0), http.StatusBadRequest, codes.InvalidArgument, "Bad request", "请求错误"))
	ErrInvalidParam     = Register(New(MakeCode(ServiceCommon, CategoryRequest, 1), http.StatusBadRequest, codes.InvalidArgument, "Invalid parameter", "参数无效"))
	ErrValidationFailed = Register(New(MakeCode(ServiceCommon, CategoryRequest, 4), http.StatusBadRequest, codes.InvalidArgument, "Validation failed", "校验失败"))
)

// Authentication errors (category 02)
var (
	ErrUnauthorized       = Register(New(MakeCode(ServiceCommon, CategoryAuth, 0), http.StatusUnauthorized, codes.Unauthenticated, "Unauthorized", "未认证"))
	ErrInvalidToken       = Register(New(MakeCode(ServiceCommon, CategoryAuth, 1), http.StatusUnauthorized, codes.Unauthenticated, "Invalid token", "无效的令牌"))
	ErrTokenExpired       = Register(New(MakeCode(ServiceCommon, CategoryAuth, 2), http.StatusUnauthorized, codes.Unauthenticated, "Token expired", "令牌已过期"))
	ErrInvalidCredentials = Register(New(MakeCode(ServiceCommon, CategoryAuth, 3), http.StatusUnauthorized, codes.Unauthenticated, "Invalid credentials", "用户名或密码错误"))
)

// Authorization errors (category 03)
var (
	ErrForbidden       = Register(New(MakeCode(ServiceCommon, CategoryPermission, 0), http.StatusForbidden, codes.PermissionDenied, "Forbidden", "禁止访问"))
	ErrAccountDisabled = Register(New(MakeCode(ServiceCommon, CategoryPermission, 3), http.StatusForbidden, codes.PermissionDenied, "Account disabled", "账户已禁用"))
)

// Resource errors (category 04)
var (
	ErrNotFound      = Register(New(MakeCode(ServiceCommon, CategoryResource, 0), http.StatusNotFound, codes.NotFound, "Resource not found", "资源不存在"))
	ErrUserNotFound  = Register(New(MakeCode(ServiceCommon, CategoryResource, 1), http.StatusNotFound, codes.NotFound, "User not found", "用户不存在"))
	ErrRouteNotFound = Register(New(MakeCode(ServiceCommon, CategoryResource, 4), http.StatusNotFound, codes.NotFound, "Route not found", "路由不存在"))
	ErrAlreadyExists = Register(New(MakeCode(ServiceCommon, CategoryConflict, 1), http.StatusConflict, codes.AlreadyExists, "Resource already exists", "资源已存在"))
)

// Server errors (categories 07-12)
var (
	ErrInternal           = Register(New(MakeCode(ServiceCommon, CategoryInternal, 0), http.StatusInternalServerError, codes.Internal, "Internal server error", "服务器内部错误"))
	ErrPanic              = Register(New(MakeCode(ServiceCommon, CategoryInternal, 2), http.StatusInternalServerError, codes.Internal, "Internal panic", "服务内部异常"))
	ErrDatabase           = Register(New(MakeCode(ServiceCommon, CategoryDatabase, 0), http.StatusInternalServerError, codes.Internal, "Database error", "数据库错误"))
	ErrCache              = Register(New(MakeCode(ServiceCommon, CategoryCache, 0), http.StatusInternalServerError, codes.Internal, "Cache error", "缓存错误"))
	ErrServiceUnavailable = Register(New(MakeCode(ServiceCommon, CategoryNetwork, 1), http.StatusServiceUnavailable, codes.Unavailable, "Service unavailable", "服务不可用"))
	ErrTimeout            = Register(New(MakeCode(ServiceCommon, CategoryTimeout, 0), http.StatusGatewayTimeout, codes.DeadlineExceeded, "Operation timeout", "操作超时"))
	ErrRequestTimeout     = Register(New(MakeCode(ServiceCommon, CategoryTimeout, 1), http.StatusRequestTimeout, codes.DeadlineExceeded, "Request timeout", "请求超时"))
	ErrContextCanceled    = Register(New(MakeCode(ServiceCommon, CategoryTimeout, 3), 499, codes.Canceled, "Context canceled", "上下文已取消"))
	ErrConfigInvalid      = Register(New(MakeCode(ServiceCommon, CategoryConfig, 2), http.StatusInternalServerError, codes.Internal, "Invalid configuration", "配置无效"))
)
