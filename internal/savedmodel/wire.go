package savedmodel

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/born-ml/savedmodel/internal/checkpoint"
	"github.com/born-ml/savedmodel/internal/graph"
	"github.com/born-ml/savedmodel/internal/tensor"
)

// Protobuf wire format codec for the container. Field numbers below are
// the container schema; bumping SchemaVersion is required for any
// incompatible change.
//
// SavedModel:    1=schema_version 2=meta_graph
// MetaGraph:     1=graph_def 2=saver_def 3=signature entry (repeated)
// sig entry:     1=key 2=signature_def
// SignatureDef:  1=input entry 2=output entry 3=method_name
// info entry:    1=key 2=tensor_info
// TensorInfo:    1=name 2=dtype 3=shape
// shape:         1=dim (repeated varint)
// GraphDef:      1=node 2=function 3=version
// NodeDef:       1=name 2=op 3=input (repeated) 4=attr entry
// attr entry:    1=name 2=value
// AttrValue:     1=kind 2=s 3=i 4=type 5=shape 6=shape (repeated, list)
// FunctionDef:   1=name 2=input_arg 3=output_arg 4=node
// ArgDef:        1=name 2=dtype 3=shape
// SaverDef:      1=filename_tensor_name 2=restore_op_name 3=version 4=binding
// Binding:       1=checkpoint_key 2=handle_tensor_name 3=restore_tensor_name

// Protobuf wire types.
const (
	wireVarint = 0
	wireBytes  = 2
	wire64Bit  = 1
	wire32Bit  = 5
)

// builder accumulates an encoded message. Map-valued fields are always
// emitted in sorted key order so encoding is a pure function of the
// container value.
type builder struct {
	buf []byte
}

func (b *builder) tag(fieldNum, wireType int) {
	b.buf = binary.AppendUvarint(b.buf, uint64(fieldNum)<<3|uint64(wireType))
}

func (b *builder) varint(fieldNum int, v uint64) {
	b.tag(fieldNum, wireVarint)
	b.buf = binary.AppendUvarint(b.buf, v)
}

func (b *builder) str(fieldNum int, s string) {
	b.tag(fieldNum, wireBytes)
	b.buf = binary.AppendUvarint(b.buf, uint64(len(s)))
	b.buf = append(b.buf, s...)
}

func (b *builder) msg(fieldNum int, sub *builder) {
	b.tag(fieldNum, wireBytes)
	b.buf = binary.AppendUvarint(b.buf, uint64(len(sub.buf)))
	b.buf = append(b.buf, sub.buf...)
}

// encodeContainer serializes a container to its wire form.
func encodeContainer(sm *SavedModel) []byte {
	b := &builder{}
	b.varint(1, uint64(sm.SchemaVersion))
	if sm.MetaGraph != nil {
		b.msg(2, encodeMetaGraph(sm.MetaGraph))
	}
	return b.buf
}

func encodeMetaGraph(mg *MetaGraph) *builder {
	b := &builder{}
	if mg.GraphDef != nil {
		b.msg(1, encodeGraphDef(mg.GraphDef))
	}
	if mg.SaverDef != nil {
		b.msg(2, encodeSaverDef(mg.SaverDef))
	}
	for _, key := range sortedSignatureKeys(mg.Signatures) {
		entry := &builder{}
		entry.str(1, key)
		entry.msg(2, encodeSignatureDef(mg.Signatures[key]))
		b.msg(3, entry)
	}
	return b
}

func encodeSignatureDef(sig *SignatureDef) *builder {
	b := &builder{}
	encodeTensorInfoMap(b, 1, sig.Inputs)
	encodeTensorInfoMap(b, 2, sig.Outputs)
	b.str(3, sig.MethodName)
	return b
}

func encodeTensorInfoMap(b *builder, fieldNum int, infos map[string]*TensorInfo) {
	keys := make([]string, 0, len(infos))
	for key := range infos {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		entry := &builder{}
		entry.str(1, key)
		entry.msg(2, encodeTensorInfo(infos[key]))
		b.msg(fieldNum, entry)
	}
}

func encodeTensorInfo(info *TensorInfo) *builder {
	b := &builder{}
	b.str(1, info.Name)
	b.varint(2, uint64(info.DType))
	b.msg(3, encodeShape(info.Shape))
	return b
}

func encodeShape(shape tensor.Shape) *builder {
	b := &builder{}
	for _, dim := range shape {
		b.varint(1, uint64(dim))
	}
	return b
}

func encodeGraphDef(def *graph.Def) *builder {
	b := &builder{}
	for i := range def.Nodes {
		b.msg(1, encodeNodeDef(&def.Nodes[i]))
	}
	for i := range def.Functions {
		b.msg(2, encodeFunctionDef(&def.Functions[i]))
	}
	b.varint(3, uint64(def.Version))
	return b
}

func encodeNodeDef(nd *graph.NodeDef) *builder {
	b := &builder{}
	b.str(1, nd.Name)
	b.str(2, nd.Op)
	for _, in := range nd.Inputs {
		b.str(3, in)
	}
	for _, attr := range nd.Attrs {
		entry := &builder{}
		entry.str(1, attr.Name)
		entry.msg(2, encodeAttrValue(attr.Value))
		b.msg(4, entry)
	}
	return b
}

func encodeAttrValue(a graph.Attr) *builder {
	b := &builder{}
	b.varint(1, uint64(a.Kind))
	switch a.Kind {
	case graph.AttrString:
		b.str(2, a.S)
	case graph.AttrInt:
		b.varint(3, uint64(a.I))
	case graph.AttrType:
		b.varint(4, uint64(a.DType))
	case graph.AttrShape:
		b.msg(5, encodeShape(a.Shape))
	case graph.AttrShapeList:
		for _, s := range a.Shapes {
			b.msg(6, encodeShape(s))
		}
	}
	return b
}

func encodeFunctionDef(fd *graph.FunctionDef) *builder {
	b := &builder{}
	b.str(1, fd.Name)
	for i := range fd.InputArgs {
		b.msg(2, encodeArgDef(&fd.InputArgs[i]))
	}
	for i := range fd.OutputArgs {
		b.msg(3, encodeArgDef(&fd.OutputArgs[i]))
	}
	for i := range fd.Nodes {
		b.msg(4, encodeNodeDef(&fd.Nodes[i]))
	}
	return b
}

func encodeArgDef(arg *graph.ArgDef) *builder {
	b := &builder{}
	b.str(1, arg.Name)
	b.varint(2, uint64(arg.DType))
	b.msg(3, encodeShape(arg.Shape))
	return b
}

func encodeSaverDef(sd *checkpoint.SaverDef) *builder {
	b := &builder{}
	b.str(1, sd.FilenameTensorName)
	b.str(2, sd.RestoreOpName)
	b.varint(3, uint64(sd.Version))
	for _, binding := range sd.Bindings {
		entry := &builder{}
		entry.str(1, binding.CheckpointKey)
		entry.str(2, binding.HandleTensorName)
		entry.str(3, binding.RestoreTensorName)
		b.msg(4, entry)
	}
	return b
}

func sortedSignatureKeys(sigs map[string]*SignatureDef) []string {
	keys := make([]string, 0, len(sigs))
	for key := range sigs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// parser implements a minimal protobuf wire format decoder.
type parser struct {
	data []byte
	pos  int
}

// decodeContainer parses a container from its wire form.
func decodeContainer(data []byte) (*SavedModel, error) {
	p := &parser{data: data}
	sm := &SavedModel{}
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		switch fieldNum {
		case 1: // schema_version
			sm.SchemaVersion, err = p.readVarint()
		case 2: // meta_graph
			var sub []byte
			sub, err = p.readBytes()
			if err == nil {
				sm.MetaGraph, err = decodeMetaGraph(sub)
			}
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return nil, err
		}
	}
	return sm, nil
}

func decodeMetaGraph(data []byte) (*MetaGraph, error) {
	p := &parser{data: data}
	mg := &MetaGraph{Signatures: map[string]*SignatureDef{}}
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		switch fieldNum {
		case 1: // graph_def
			var sub []byte
			sub, err = p.readBytes()
			if err == nil {
				mg.GraphDef, err = decodeGraphDef(sub)
			}
		case 2: // saver_def
			var sub []byte
			sub, err = p.readBytes()
			if err == nil {
				mg.SaverDef, err = decodeSaverDef(sub)
			}
		case 3: // signature entry
			var sub []byte
			sub, err = p.readBytes()
			if err == nil {
				err = decodeSignatureEntry(sub, mg.Signatures)
			}
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return nil, err
		}
	}
	return mg, nil
}

func decodeSignatureEntry(data []byte, into map[string]*SignatureDef) error {
	p := &parser{data: data}
	var key string
	var def *SignatureDef
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		switch fieldNum {
		case 1: // key
			key, err = p.readString()
		case 2: // signature_def
			var sub []byte
			sub, err = p.readBytes()
			if err == nil {
				def, err = decodeSignatureDef(sub)
			}
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return err
		}
	}
	if def == nil {
		return fmt.Errorf("signature entry %q has no definition", key)
	}
	into[key] = def
	return nil
}

func decodeSignatureDef(data []byte) (*SignatureDef, error) {
	p := &parser{data: data}
	sig := &SignatureDef{
		Inputs:  map[string]*TensorInfo{},
		Outputs: map[string]*TensorInfo{},
	}
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		switch fieldNum {
		case 1: // input entry
			var sub []byte
			sub, err = p.readBytes()
			if err == nil {
				err = decodeTensorInfoEntry(sub, sig.Inputs)
			}
		case 2: // output entry
			var sub []byte
			sub, err = p.readBytes()
			if err == nil {
				err = decodeTensorInfoEntry(sub, sig.Outputs)
			}
		case 3: // method_name
			sig.MethodName, err = p.readString()
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return nil, err
		}
	}
	return sig, nil
}

func decodeTensorInfoEntry(data []byte, into map[string]*TensorInfo) error {
	p := &parser{data: data}
	var key string
	var info *TensorInfo
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		switch fieldNum {
		case 1: // key
			key, err = p.readString()
		case 2: // tensor_info
			var sub []byte
			sub, err = p.readBytes()
			if err == nil {
				info, err = decodeTensorInfo(sub)
			}
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return err
		}
	}
	if info == nil {
		return fmt.Errorf("tensor info entry %q has no descriptor", key)
	}
	into[key] = info
	return nil
}

func decodeTensorInfo(data []byte) (*TensorInfo, error) {
	p := &parser{data: data}
	info := &TensorInfo{}
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		switch fieldNum {
		case 1: // name
			info.Name, err = p.readString()
		case 2: // dtype
			var v int64
			v, err = p.readVarint()
			info.DType = tensor.DataType(v)
		case 3: // shape
			var sub []byte
			sub, err = p.readBytes()
			if err == nil {
				info.Shape, err = decodeShape(sub)
			}
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return nil, err
		}
	}
	return info, nil
}

func decodeShape(data []byte) (tensor.Shape, error) {
	p := &parser{data: data}
	shape := tensor.Shape{}
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		switch fieldNum {
		case 1: // dim
			var dim int64
			dim, err = p.readVarint()
			shape = append(shape, int(dim))
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return nil, err
		}
	}
	return shape, nil
}

func decodeGraphDef(data []byte) (*graph.Def, error) {
	p := &parser{data: data}
	def := &graph.Def{}
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		switch fieldNum {
		case 1: // node
			var sub []byte
			sub, err = p.readBytes()
			if err == nil {
				var nd graph.NodeDef
				nd, err = decodeNodeDef(sub)
				def.Nodes = append(def.Nodes, nd)
			}
		case 2: // function
			var sub []byte
			sub, err = p.readBytes()
			if err == nil {
				var fd graph.FunctionDef
				fd, err = decodeFunctionDef(sub)
				def.Functions = append(def.Functions, fd)
			}
		case 3: // version
			var v int64
			v, err = p.readVarint()
			def.Version = int(v)
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return nil, err
		}
	}
	return def, nil
}

func decodeNodeDef(data []byte) (graph.NodeDef, error) {
	p := &parser{data: data}
	var nd graph.NodeDef
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nd, err
		}
		switch fieldNum {
		case 1: // name
			nd.Name, err = p.readString()
		case 2: // op
			nd.Op, err = p.readString()
		case 3: // input
			var in string
			in, err = p.readString()
			nd.Inputs = append(nd.Inputs, in)
		case 4: // attr entry
			var sub []byte
			sub, err = p.readBytes()
			if err == nil {
				var attr graph.NamedAttr
				attr, err = decodeAttrEntry(sub)
				nd.Attrs = append(nd.Attrs, attr)
			}
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return nd, err
		}
	}
	return nd, nil
}

func decodeAttrEntry(data []byte) (graph.NamedAttr, error) {
	p := &parser{data: data}
	var attr graph.NamedAttr
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return attr, err
		}
		switch fieldNum {
		case 1: // name
			attr.Name, err = p.readString()
		case 2: // value
			var sub []byte
			sub, err = p.readBytes()
			if err == nil {
				attr.Value, err = decodeAttrValue(sub)
			}
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return attr, err
		}
	}
	return attr, nil
}

func decodeAttrValue(data []byte) (graph.Attr, error) {
	p := &parser{data: data}
	var a graph.Attr
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return a, err
		}
		switch fieldNum {
		case 1: // kind
			var v int64
			v, err = p.readVarint()
			a.Kind = int(v)
		case 2: // s
			a.S, err = p.readString()
		case 3: // i
			a.I, err = p.readVarint()
		case 4: // type
			var v int64
			v, err = p.readVarint()
			a.DType = tensor.DataType(v)
		case 5: // shape
			var sub []byte
			sub, err = p.readBytes()
			if err == nil {
				a.Shape, err = decodeShape(sub)
			}
		case 6: // shape list element
			var sub []byte
			sub, err = p.readBytes()
			if err == nil {
				var s tensor.Shape
				s, err = decodeShape(sub)
				a.Shapes = append(a.Shapes, s)
			}
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return a, err
		}
	}
	return a, nil
}

func decodeFunctionDef(data []byte) (graph.FunctionDef, error) {
	p := &parser{data: data}
	var fd graph.FunctionDef
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fd, err
		}
		switch fieldNum {
		case 1: // name
			fd.Name, err = p.readString()
		case 2: // input_arg
			var arg graph.ArgDef
			arg, err = decodeArgDefField(p)
			fd.InputArgs = append(fd.InputArgs, arg)
		case 3: // output_arg
			var arg graph.ArgDef
			arg, err = decodeArgDefField(p)
			fd.OutputArgs = append(fd.OutputArgs, arg)
		case 4: // node
			var sub []byte
			sub, err = p.readBytes()
			if err == nil {
				var nd graph.NodeDef
				nd, err = decodeNodeDef(sub)
				fd.Nodes = append(fd.Nodes, nd)
			}
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return fd, err
		}
	}
	return fd, nil
}

func decodeArgDefField(p *parser) (graph.ArgDef, error) {
	sub, err := p.readBytes()
	if err != nil {
		return graph.ArgDef{}, err
	}
	return decodeArgDef(sub)
}

func decodeArgDef(data []byte) (graph.ArgDef, error) {
	p := &parser{data: data}
	var arg graph.ArgDef
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return arg, err
		}
		switch fieldNum {
		case 1: // name
			arg.Name, err = p.readString()
		case 2: // dtype
			var v int64
			v, err = p.readVarint()
			arg.DType = tensor.DataType(v)
		case 3: // shape
			var sub []byte
			sub, err = p.readBytes()
			if err == nil {
				arg.Shape, err = decodeShape(sub)
			}
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return arg, err
		}
	}
	return arg, nil
}

func decodeSaverDef(data []byte) (*checkpoint.SaverDef, error) {
	p := &parser{data: data}
	sd := &checkpoint.SaverDef{}
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		switch fieldNum {
		case 1: // filename_tensor_name
			sd.FilenameTensorName, err = p.readString()
		case 2: // restore_op_name
			sd.RestoreOpName, err = p.readString()
		case 3: // version
			var v int64
			v, err = p.readVarint()
			sd.Version = int(v)
		case 4: // binding
			var sub []byte
			sub, err = p.readBytes()
			if err == nil {
				var binding checkpoint.Binding
				binding, err = decodeBinding(sub)
				sd.Bindings = append(sd.Bindings, binding)
			}
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return nil, err
		}
	}
	return sd, nil
}

func decodeBinding(data []byte) (checkpoint.Binding, error) {
	p := &parser{data: data}
	var binding checkpoint.Binding
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return binding, err
		}
		switch fieldNum {
		case 1: // checkpoint_key
			binding.CheckpointKey, err = p.readString()
		case 2: // handle_tensor_name
			binding.HandleTensorName, err = p.readString()
		case 3: // restore_tensor_name
			binding.RestoreTensorName, err = p.readString()
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return binding, err
		}
	}
	return binding, nil
}

// readTag reads a protobuf field tag.
func (p *parser) readTag() (fieldNum, wireType int, err error) {
	if p.pos >= len(p.data) {
		return 0, 0, io.EOF
	}
	tag, err := p.readVarint()
	if err != nil {
		return 0, 0, err
	}
	fieldNum = int(tag >> 3)
	wireType = int(tag & 0x7)
	return fieldNum, wireType, nil
}

// readVarint reads a varint-encoded int64.
func (p *parser) readVarint() (int64, error) {
	var result uint64
	var shift uint
	for {
		if p.pos >= len(p.data) {
			return 0, io.EOF
		}
		b := p.data[p.pos]
		p.pos++
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
		if shift >= 64 {
			return 0, errors.New("varint overflow")
		}
	}
	return int64(result), nil
}

// readBytes reads a length-delimited byte slice. The declared length
// is checked against the remaining input before any offset arithmetic
// so oversized varints cannot wrap the bounds check.
func (p *parser) readBytes() ([]byte, error) {
	length, err := p.readVarint()
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, errors.New("negative length")
	}
	if length > int64(len(p.data)-p.pos) {
		return nil, io.ErrUnexpectedEOF
	}
	end := p.pos + int(length)
	result := p.data[p.pos:end]
	p.pos = end
	return result, nil
}

// readString reads a length-delimited string.
func (p *parser) readString() (string, error) {
	data, err := p.readBytes()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// skipField skips a field based on wire type.
func (p *parser) skipField(wireType int) error {
	switch wireType {
	case wireVarint:
		_, err := p.readVarint()
		return err
	case wire64Bit:
		if p.pos+8 > len(p.data) {
			return io.ErrUnexpectedEOF
		}
		p.pos += 8
		return nil
	case wireBytes:
		_, err := p.readBytes()
		return err
	case wire32Bit:
		if p.pos+4 > len(p.data) {
			return io.ErrUnexpectedEOF
		}
		p.pos += 4
		return nil
	default:
		return fmt.Errorf("unknown wire type: %d", wireType)
	}
}
