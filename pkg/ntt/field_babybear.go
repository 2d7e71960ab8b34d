//go:build bb31

package ntt

import "github.com/agbru/nttgpu/internal/field"

func defaultField() *field.Field { return field.BabyBear() }
