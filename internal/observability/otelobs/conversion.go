package otelobs

import "fmt"

func toString(v any) string {
	return fmt.Sprintf("%v", v)
}
