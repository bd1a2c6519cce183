// Package testschema provides descriptor fixtures for tests: the schemas the
// codec has historically been exercised with (Unicorn, ProbeResult,
// PBDNSMessage, A.MessageA, RepeatedEvents...) built as
// FileDescriptorProtos, plus helpers to compile them or write them to disk as
// descriptor sets.
package testschema

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Unicorn returns unicorn.proto (proto3, no package):
//
//	enum Colour { BLACK = 0; BLUE = 1; GREEN = 2; SILVER = 3; PINK = 4; WHITE = 5; GLITTER = 6; }
//	message Unicorn {
//	  string name = 1; int32 age = 2; Colour fur_colour = 3; double height = 4;
//	  float weight = 5; bool is_pegasus = 6; repeated int32 favourite_numbers = 7;
//	  repeated Colour favourite_colours = 8; Unicorn mother = 9; Unicorn father = 10;
//	}
func Unicorn() *descriptorpb.FileDescriptorProto {
	f := file("unicorn.proto", "", "proto3")
	f.EnumType = []*descriptorpb.EnumDescriptorProto{
		enum("Colour", "BLACK", "BLUE", "GREEN", "SILVER", "PINK", "WHITE", "GLITTER"),
	}
	f.MessageType = []*descriptorpb.DescriptorProto{
		message("Unicorn",
			field("name", 1, tString),
			field("age", 2, tInt32),
			field("fur_colour", 3, tEnum, typeName(".Colour")),
			field("height", 4, tDouble),
			field("weight", 5, tFloat),
			field("is_pegasus", 6, tBool),
			field("favourite_numbers", 7, tInt32, repeated()),
			field("favourite_colours", 8, tEnum, repeated(), typeName(".Colour")),
			field("mother", 9, tMessage, typeName(".Unicorn")),
			field("father", 10, tMessage, typeName(".Unicorn")),
		),
	}
	return f
}

// UnicornV2 is a newer revision of Unicorn with two more fields and one more
// colour. Compile it on its own; it shares names with Unicorn.
func UnicornV2() *descriptorpb.FileDescriptorProto {
	f := Unicorn()
	f.EnumType[0].Value = append(f.EnumType[0].Value, enumFrom("Colour", 7, "RAINBOW").Value...)
	f.MessageType[0].Field = append(f.MessageType[0].Field,
		field("horn_length", 20, tDouble),
		field("sparkles", 21, tString, repeated()),
	)
	return f
}

// ProbeResult returns ProbeResult.proto (proto3):
//
//	message PingIPv4Result {
//	  enum Status { OK = 0; ERROR = 1; TIMEOUT = 2; }
//	  Status status = 1; int64 latency = 2; string ip = 3; string probe_ip = 4; string geolocation = 5;
//	}
//	message ProbeResult { string UUID = 1; PingIPv4Result TaskPingIPv4Result = 2; }
func ProbeResult() *descriptorpb.FileDescriptorProto {
	f := file("ProbeResult.proto", "", "proto3")
	ping := message("PingIPv4Result",
		field("status", 1, tEnum, typeName(".PingIPv4Result.Status")),
		field("latency", 2, tInt64),
		field("ip", 3, tString),
		field("probe_ip", 4, tString),
		field("geolocation", 5, tString),
	)
	ping.EnumType = []*descriptorpb.EnumDescriptorProto{enum("Status", "OK", "ERROR", "TIMEOUT")}
	f.MessageType = []*descriptorpb.DescriptorProto{
		ping,
		message("ProbeResult",
			field("UUID", 1, tString),
			field("TaskPingIPv4Result", 2, tMessage, typeName(".PingIPv4Result")),
		),
	}
	return f
}

// DNSMessage returns dnsmessage.proto, a proto2 schema with nested enums and
// messages (PBDNSMessage, PBDNSMessage.DNSQuestion, PBDNSMessage.DNSResponse,
// PBDNSMessage.DNSResponse.DNSRR). All fields are proto2 optional, so unset
// fields are absent from decoded records.
func DNSMessage() *descriptorpb.FileDescriptorProto {
	f := file("dnsmessage.proto", "", "proto2")

	rr := message("DNSRR",
		field("name", 1, tString),
		field("type", 2, tUint32),
		field("class", 3, tUint32),
		field("ttl", 4, tUint32),
		field("rdata", 5, tBytes),
	)
	response := message("DNSResponse",
		field("rcode", 1, tUint32),
		field("rrs", 2, tMessage, repeated(), typeName(".PBDNSMessage.DNSResponse.DNSRR")),
		field("appliedPolicy", 3, tString),
		field("tags", 4, tString, repeated()),
		field("queryTimeSec", 5, tUint32),
		field("queryTimeUsec", 6, tUint32),
		field("appliedPolicyType", 7, tEnum, typeName(".PBDNSMessage.PolicyType")),
	)
	response.NestedType = []*descriptorpb.DescriptorProto{rr}

	question := message("DNSQuestion",
		field("qName", 1, tString),
		field("qType", 2, tUint32),
		field("qClass", 3, tUint32),
	)

	root := message("PBDNSMessage",
		field("type", 1, tEnum, typeName(".PBDNSMessage.Type")),
		field("messageId", 2, tBytes),
		field("serverIdentity", 3, tBytes),
		field("socketFamily", 4, tEnum, typeName(".PBDNSMessage.SocketFamily")),
		field("socketProtocol", 5, tEnum, typeName(".PBDNSMessage.SocketProtocol")),
		field("from", 6, tBytes),
		field("to", 7, tBytes),
		field("inBytes", 8, tUint64),
		field("timeSec", 9, tUint32),
		field("timeUsec", 10, tUint32),
		field("id", 11, tUint32),
		field("question", 12, tMessage, typeName(".PBDNSMessage.DNSQuestion")),
		field("response", 13, tMessage, typeName(".PBDNSMessage.DNSResponse")),
		field("requestorId", 15, tString),
	)
	root.EnumType = []*descriptorpb.EnumDescriptorProto{
		enumFrom("Type", 1, "DNSQueryType", "DNSResponseType", "DNSOutgoingQueryType", "DNSIncomingResponseType"),
		enumFrom("SocketFamily", 1, "INET", "INET6"),
		enumFrom("SocketProtocol", 1, "UDP", "TCP"),
		enumFrom("PolicyType", 1, "UNKNOWN", "QNAME", "CLIENTIP", "RESPONSEIP", "NSDNAME", "NSIP"),
	}
	root.NestedType = []*descriptorpb.DescriptorProto{question, response}
	f.MessageType = []*descriptorpb.DescriptorProto{root}
	return f
}

// IntegerTest returns integertest.proto:
//
//	package com.foo.bar;
//	message IntegerTestMessage { int32 response_time = 1; }
func IntegerTest() *descriptorpb.FileDescriptorProto {
	f := file("integertest.proto", "com.foo.bar", "proto3")
	f.MessageType = []*descriptorpb.DescriptorProto{
		message("IntegerTestMessage", field("response_time", 1, tInt32)),
	}
	return f
}

// Header returns header.proto: message Header { map<string, string> name = 1; }
func Header() *descriptorpb.FileDescriptorProto {
	f := file("header.proto", "", "proto3")
	header := message("Header",
		field("name", 1, tMessage, repeated(), typeName(".Header.NameEntry")),
	)
	header.NestedType = []*descriptorpb.DescriptorProto{
		mapEntry("NameEntry", field("", 0, tString), field("", 0, tString)),
	}
	f.MessageType = []*descriptorpb.DescriptorProto{header}
	return f
}

// MessageA returns messageA.proto, which imports header.proto:
//
//	package A;
//	import "header.proto";
//	message MessageA { string name = 1; Header header = 2; }
func MessageA() *descriptorpb.FileDescriptorProto {
	f := file("messageA.proto", "A", "proto3", "header.proto")
	f.MessageType = []*descriptorpb.DescriptorProto{
		message("MessageA",
			field("name", 1, tString),
			field("header", 2, tMessage, typeName(".Header")),
		),
	}
	return f
}

// Events returns events.proto:
//
//	message RepeatedEvent { string id = 1; string msg = 2; }
//	message RepeatedEvents { repeated RepeatedEvent repeated_events = 1; }
func Events() *descriptorpb.FileDescriptorProto {
	f := file("events.proto", "", "proto3")
	f.MessageType = []*descriptorpb.DescriptorProto{
		message("RepeatedEvent",
			field("id", 1, tString),
			field("msg", 2, tString),
		),
		message("RepeatedEvents",
			field("repeated_events", 1, tMessage, repeated(), typeName(".RepeatedEvent")),
		),
	}
	return f
}

// Kitchen returns kitchen.proto, covering every scalar kind, maps with
// integer keys and message values, a oneof and a proto3 optional field:
//
//	package kitchen;
//	enum Level { LEVEL_UNSPECIFIED = 0; LOW = 1; HIGH = 2; }
//	message Item { string label = 1; Level level = 2; }
//	message Sink {
//	  int32 i32 = 1; int64 i64 = 2; sint32 s32 = 3; sint64 s64 = 4; uint32 u32 = 5;
//	  uint64 u64 = 6; fixed32 f32 = 7; fixed64 f64 = 8; float fl = 9; double db = 10;
//	  bool flag = 11; string text = 12; bytes blob = 13;
//	  map<int32, Item> items = 14; map<string, Level> levels = 15; map<bool, string> switches = 16;
//	  oneof choice { string alpha = 17; int64 beta = 18; }
//	  optional string nickname = 19;
//	  repeated Item history = 20; repeated bytes chunks = 21;
//	}
func Kitchen() *descriptorpb.FileDescriptorProto {
	f := file("kitchen.proto", "kitchen", "proto3")
	f.EnumType = []*descriptorpb.EnumDescriptorProto{
		enum("Level", "LEVEL_UNSPECIFIED", "LOW", "HIGH"),
	}
	sink := message("Sink",
		field("i32", 1, tInt32),
		field("i64", 2, tInt64),
		field("s32", 3, tSint32),
		field("s64", 4, tSint64),
		field("u32", 5, tUint32),
		field("u64", 6, tUint64),
		field("f32", 7, tFixed32),
		field("f64", 8, tFixed64),
		field("fl", 9, tFloat),
		field("db", 10, tDouble),
		field("flag", 11, tBool),
		field("text", 12, tString),
		field("blob", 13, tBytes),
		field("items", 14, tMessage, repeated(), typeName(".kitchen.Sink.ItemsEntry")),
		field("levels", 15, tMessage, repeated(), typeName(".kitchen.Sink.LevelsEntry")),
		field("switches", 16, tMessage, repeated(), typeName(".kitchen.Sink.SwitchesEntry")),
		field("alpha", 17, tString, oneofIndex(0)),
		field("beta", 18, tInt64, oneofIndex(0)),
		field("nickname", 19, tString, proto3Optional(1)),
		field("history", 20, tMessage, repeated(), typeName(".kitchen.Item")),
		field("chunks", 21, tBytes, repeated()),
	)
	sink.NestedType = []*descriptorpb.DescriptorProto{
		mapEntry("ItemsEntry", field("", 0, tInt32), field("", 0, tMessage, typeName(".kitchen.Item"))),
		mapEntry("LevelsEntry", field("", 0, tString), field("", 0, tEnum, typeName(".kitchen.Level"))),
		mapEntry("SwitchesEntry", field("", 0, tBool), field("", 0, tString)),
	}
	sink.OneofDecl = []*descriptorpb.OneofDescriptorProto{
		{Name: proto.String("choice")},
		{Name: proto.String("_nickname")},
	}
	f.MessageType = []*descriptorpb.DescriptorProto{
		message("Item",
			field("label", 1, tString),
			field("level", 2, tEnum, typeName(".kitchen.Level")),
		),
		sink,
	}
	return f
}

// Choice returns choice.proto, a oneof over two message types:
//
//	package choice;
//	message A { string x = 1; }
//	message B { string y = 1; }
//	message Choice { oneof kind { A a = 1; B b = 2; } C plain = 3; }
//	message C { int32 n = 1; }
func Choice() *descriptorpb.FileDescriptorProto {
	f := file("choice.proto", "choice", "proto3")
	choice := message("Choice",
		field("a", 1, tMessage, typeName(".choice.A"), oneofIndex(0)),
		field("b", 2, tMessage, typeName(".choice.B"), oneofIndex(0)),
		field("plain", 3, tMessage, typeName(".choice.C")),
	)
	choice.OneofDecl = []*descriptorpb.OneofDescriptorProto{{Name: proto.String("kind")}}
	f.MessageType = []*descriptorpb.DescriptorProto{
		message("A", field("x", 1, tString)),
		message("B", field("y", 1, tString)),
		message("C", field("n", 1, tInt32)),
		choice,
	}
	return f
}

// Aliased returns alias.proto, an enum with allow_alias:
//
//	package alias;
//	enum Priority { option allow_alias = true; LOW = 0; MINOR = 0; HIGH = 1; URGENT = 1; }
//	message Ticket { Priority priority = 1; repeated Priority history = 2; }
func Aliased() *descriptorpb.FileDescriptorProto {
	f := file("alias.proto", "alias", "proto3")
	priority := enum("Priority", "LOW", "MINOR", "HIGH", "URGENT")
	priority.Value[1].Number = proto.Int32(0)
	priority.Value[2].Number = proto.Int32(1)
	priority.Value[3].Number = proto.Int32(1)
	priority.Options = &descriptorpb.EnumOptions{AllowAlias: proto.Bool(true)}
	f.EnumType = []*descriptorpb.EnumDescriptorProto{priority}
	f.MessageType = []*descriptorpb.DescriptorProto{
		message("Ticket",
			field("priority", 1, tEnum, typeName(".alias.Priority")),
			field("history", 2, tEnum, repeated(), typeName(".alias.Priority")),
		),
	}
	return f
}

// CyclicA and CyclicB import each other, which protobuf forbids.
func CyclicA() *descriptorpb.FileDescriptorProto {
	f := file("cycle/a.proto", "cycle", "proto3", "cycle/b.proto")
	f.MessageType = []*descriptorpb.DescriptorProto{message("A", field("id", 1, tString))}
	return f
}

func CyclicB() *descriptorpb.FileDescriptorProto {
	f := file("cycle/b.proto", "cycle", "proto3", "cycle/a.proto")
	f.MessageType = []*descriptorpb.DescriptorProto{message("B", field("id", 1, tString))}
	return f
}

// All returns every acyclic fixture in dependency order.
func All() []*descriptorpb.FileDescriptorProto {
	return []*descriptorpb.FileDescriptorProto{
		Unicorn(), ProbeResult(), DNSMessage(), IntegerTest(), Header(), MessageA(), Events(), Kitchen(), Aliased(),
	}
}
