package guard

import (
	"context"
	"fmt"
)

// Do 以泛型方式执行受保护调用（便捷包装）
//
// op 的返回值类型为 T；fallback 可为 nil。
func Do[T any](ctx context.Context, g Guard, resource string, op func(context.Context) (T, error), fallback func(context.Context, error) (T, error)) (T, error) {
	var zero T

	req := &Request{
		Resource: resource,
		Execute: func(ctx context.Context) (interface{}, error) {
			return op(ctx)
		},
	}

	if fallback != nil {
		req.Fallback = func(ctx context.Context, err error) (interface{}, error) {
			return fallback(ctx, err)
		}
	}

	resp, err := g.Execute(ctx, req)
	if err != nil {
		return zero, err
	}

	if resp.Value == nil {
		return zero, nil
	}

	value, ok := resp.Value.(T)
	if !ok {
		return zero, fmt.Errorf("callguard: unexpected result type %T", resp.Value)
	}

	return value, nil
}

// DoErr 执行无返回值的受保护调用
func DoErr(ctx context.Context, g Guard, resource string, op func(context.Context) error) error {
	_, err := Do(ctx, g, resource, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, nil)
	return err
}
