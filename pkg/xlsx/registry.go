package xlsx

// formatRegistry assigns stable indices to distinct formats. The xf
// registry reserves index 0 for the default format; the dxf registry used
// by conditional formats starts empty.
type formatRegistry struct {
	index   map[Format]uint32
	formats []Format
}

func newXFRegistry() *formatRegistry {
	r := &formatRegistry{index: make(map[Format]uint32)}
	r.register(Format{})
	return r
}

func newDXFRegistry() *formatRegistry {
	return &formatRegistry{index: make(map[Format]uint32)}
}

// register returns the index of f, appending it on first sight.
func (r *formatRegistry) register(f Format) uint32 {
	f = f.normalized()
	if i, ok := r.index[f]; ok {
		return i
	}
	i := uint32(len(r.formats))
	r.index[f] = i
	r.formats = append(r.formats, f)
	return i
}

func (r *formatRegistry) len() int { return len(r.formats) }

func (r *formatRegistry) has(i uint32) bool { return int(i) < len(r.formats) }

func (r *formatRegistry) at(i uint32) Format { return r.formats[i] }
