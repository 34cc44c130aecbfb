package encoder

import "fmt"

// Variant is one step on the encoder degradation path. Each step is
// strictly more conservative than the previous one.
type Variant int

const (
	// VariantHardware is the full-quality hardware encoder configuration.
	VariantHardware Variant = iota
	// VariantHardwareFallback keeps the hardware encoder but with
	// conservative rate control and a lower profile.
	VariantHardwareFallback
	// VariantSoftware is the libx264 path, attempted last.
	VariantSoftware
)

func (v Variant) String() string {
	switch v {
	case VariantHardware:
		return "hardware"
	case VariantHardwareFallback:
		return "hardware-fallback"
	case VariantSoftware:
		return "software"
	}
	return fmt.Sprintf("variant(%d)", int(v))
}

// ParseVariant resolves a user-supplied variant name. "auto" is handled
// by the caller through hardware detection before this is reached.
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "hardware":
		return VariantHardware, nil
	case "hardware-fallback":
		return VariantHardwareFallback, nil
	case "software":
		return VariantSoftware, nil
	}
	return VariantSoftware, fmt.Errorf("unknown encoder variant: %q", s)
}
