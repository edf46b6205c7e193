package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/KungSimon/VillageOfTesting/internal/protocol"
	"github.com/KungSimon/VillageOfTesting/internal/sim/village/feature/production"
)

func compile(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	p := filepath.Join("..", "..", "schemas", name)
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return s
}

// asAny round-trips v through JSON so the validator sees plain values.
func asAny(t *testing.T, v any) any {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func TestSchemas_ValidateMessages(t *testing.T) {
	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(asAny(t, v)); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	validate(compile(t, "hello.schema.json"), protocol.HelloMsg{
		Type: protocol.TypeHello, ProtocolVersion: protocol.Version, ClientName: "bot1", Subscribe: true,
	})

	validate(compile(t, "welcome.schema.json"), protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       "S1",
		VillageID:       "village_1",
		Occupations:     []string{"farmer", "builder"},
		Projects:        []protocol.ProjectInfo{{ID: "Castle", WoodCost: 50, MetalCost: 50, BuildDays: 50, EndsGame: true}},
		Catalogs:        protocol.CatalogDigests{ProjectsDigest: "deadbeef", TuningDigest: "deadbeef"},
		Rules:           protocol.RuleSummary{StarvationDays: 5, FoodPolicy: "flat"},
	})

	cmdSchema := compile(t, "cmd.schema.json")
	validate(cmdSchema, protocol.CmdMsg{
		Type: protocol.TypeCmd, ProtocolVersion: protocol.Version, CmdID: "c1",
		Op: protocol.OpAddWorker, Name: "Bob", Occupation: "farmer",
	})
	validate(cmdSchema, protocol.CmdMsg{
		Type: protocol.TypeCmd, ProtocolVersion: protocol.Version, CmdID: "c2", Op: protocol.OpDay, Days: 3,
	})

	validate(compile(t, "ack.schema.json"), protocol.AckMsg{
		Type: protocol.TypeAck, ProtocolVersion: protocol.Version, CmdID: "c2", Accepted: true,
		Days: []protocol.DaySummary{{Day: 0, Produced: production.Output{Food: 5}, Consumed: 1, Completed: []string{"House"}}},
	})

	validate(compile(t, "state.schema.json"), protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		VillageID:       "village_1",
		Day:             3,
		Stocks:          protocol.Stocks{Food: 7, WoodPerDay: 2},
		MaxWorkers:      6,
		Workers:         []protocol.WorkerView{{Name: "Bob", Occupation: "farmer"}},
		Projects:        []protocol.ProjectView{},
		Buildings:       []protocol.BuildingView{{Name: "Woodmill", CompletedDay: 2}},
		Digest:          "0000000000000000000000000000000000000000000000000000000000000000",
	})
}

func TestSchemas_RejectBadCommands(t *testing.T) {
	s := compile(t, "cmd.schema.json")
	bad := []string{
		`{"type":"CMD","protocol_version":"1.0","cmd_id":"c1","op":"FLY"}`,
		`{"type":"CMD","protocol_version":"1.0","cmd_id":"c1","op":"ADD_WORKER","name":"Bob"}`,
		`{"type":"CMD","protocol_version":"1.0","cmd_id":"c1","op":"ADD_PROJECT"}`,
		`{"type":"CMD","protocol_version":"1.0","cmd_id":"c1","op":"DAY","days":-1}`,
		`{"type":"CMD","protocol_version":"1.0","op":"DAY"}`,
	}
	for _, raw := range bad {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			t.Fatalf("bad fixture %s: %v", raw, err)
		}
		if err := s.Validate(v); err == nil {
			t.Fatalf("expected rejection: %s", raw)
		}
	}
}
