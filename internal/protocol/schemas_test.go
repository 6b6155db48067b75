package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("..", "..", "schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	resetReqSchema := compile("reset_request.schema.json")
	resetRespSchema := compile("reset_response.schema.json")
	stepReqSchema := compile("step_request.schema.json")
	stepRespSchema := compile("step_response.schema.json")
	subscribeSchema := compile("subscribe.schema.json")
	obsSchema := compile("obs.schema.json")

	var resetReq any
	_ = json.Unmarshal([]byte(`{
	  "sessionId":"s1",
	  "config":{
	    "task":"gap",
	    "taskVersion":"v2",
	    "gravity":9.81,
	    "seed":42,
	    "maxSteps":80,
	    "ticksPerStep":10,
	    "timeStep":0.016666,
	    "landingZoneStart":7.0,
	    "landingZoneEnd":9.5
	  }
	}`), &resetReq)
	validate(resetReqSchema, resetReq)

	var resetResp any
	_ = json.Unmarshal([]byte(`{
	  "success":true,
	  "sessionId":"s1",
	  "observation":{"agentPosition":[-1.33,0.5,0],"gapWidth":4.5}
	}`), &resetResp)
	validate(resetRespSchema, resetResp)

	var stepReq any
	_ = json.Unmarshal([]byte(`{
	  "sessionId":"s1",
	  "action":"jump",
	  "durationScale":0.5
	}`), &stepReq)
	validate(stepReqSchema, stepReq)

	var stepResp any
	_ = json.Unmarshal([]byte(`{
	  "success":true,
	  "observation":{"agentPosition":[2.1,0.9,0]},
	  "reward":-0.01,
	  "done":false,
	  "info":{"step":7,"success":false,"totalReward":-0.07}
	}`), &stepResp)
	validate(stepRespSchema, stepResp)

	var stepErr any
	_ = json.Unmarshal([]byte(`{
	  "success":false,
	  "reward":0,
	  "done":false,
	  "error":"action: unknown action \"levitate\"",
	  "code":"E_BAD_ACTION"
	}`), &stepErr)
	validate(stepRespSchema, stepErr)

	var sub any
	_ = json.Unmarshal([]byte(`{
	  "type":"SUBSCRIBE",
	  "protocol_version":"1.0",
	  "session_id":"s1"
	}`), &sub)
	validate(subscribeSchema, sub)

	var obs any
	_ = json.Unmarshal([]byte(`{
	  "type":"OBS",
	  "protocol_version":"1.0",
	  "session_id":"s1",
	  "step":3,
	  "done":false,
	  "observation":{"agentPosition":[0.4,0.5,0],"isGrounded":true}
	}`), &obs)
	validate(obsSchema, obs)
}
