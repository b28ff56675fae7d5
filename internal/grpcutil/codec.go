package grpcutil

import (
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// CodecName is the content-subtype under which JSONCodec is registered.
const CodecName = "json"

// JSONCodec marshals protobuf messages with protojson and any other value
// with encoding/json. It allows services to be described with plain Go
// structs while still using well-known protobuf types where convenient.
type JSONCodec struct{}

func (JSONCodec) Name() string {
	return CodecName
}

func (JSONCodec) Marshal(v any) ([]byte, error) {
	if m, ok := v.(proto.Message); ok {
		return protojson.Marshal(m)
	}

	return json.Marshal(v)
}

func (JSONCodec) Unmarshal(data []byte, v any) error {
	if m, ok := v.(proto.Message); ok {
		return protojson.Unmarshal(data, m)
	}

	return json.Unmarshal(data, v)
}

// CallOption forces the client side of a call to use JSONCodec. The server
// picks the codec from the content-subtype sent by the client.
func CallOption() grpc.CallOption {
	return grpc.CallContentSubtype(CodecName)
}

func init() {
	encoding.RegisterCodec(JSONCodec{})
}
