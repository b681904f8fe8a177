package validate_test

import (
	"context"
	"testing"

	"github.com/skillswap/swapd/internal/apperr"
	"github.com/skillswap/swapd/internal/validate"
)

func TestNewLoadsAllSchemas(t *testing.T) {
	v, err := validate.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	want := []string{
		validate.Broadcast, validate.ChatMessage, validate.Profile, validate.Rating,
		validate.Skill, validate.SwapCreate, validate.UserSkill,
	}
	got := v.Names()
	if len(got) != len(want) {
		t.Fatalf("expected %d schemas, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("schema %d: want %s got %s", i, want[i], got[i])
		}
	}
}

func TestCheck(t *testing.T) {
	v, err := validate.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	cases := []struct {
		name   string
		schema string
		body   string
		ok     bool
	}{
		{name: "SwapValid", schema: validate.SwapCreate, body: `{"counterpart_id":"bob","offered_skill_id":1,"wanted_skill_id":2}`, ok: true},
		{name: "SwapMissingSkill", schema: validate.SwapCreate, body: `{"counterpart_id":"bob","offered_skill_id":1}`},
		{name: "SwapStringID", schema: validate.SwapCreate, body: `{"counterpart_id":"bob","offered_skill_id":"1","wanted_skill_id":2}`},
		{name: "RatingValid", schema: validate.Rating, body: `{"rating":5,"comment":"great"}`, ok: true},
		{name: "RatingTooHigh", schema: validate.Rating, body: `{"rating":6}`},
		{name: "RatingZero", schema: validate.Rating, body: `{"rating":0}`},
		{name: "UserSkillBadDirection", schema: validate.UserSkill, body: `{"skill_name":"Go","direction":"both"}`},
		{name: "UserSkillValid", schema: validate.UserSkill, body: `{"skill_name":"Go","direction":"wanted"}`, ok: true},
		{name: "ProfileUnknownField", schema: validate.Profile, body: `{"role":"admin"}`},
		{name: "ProfilePartial", schema: validate.Profile, body: `{"is_public":false}`, ok: true},
		{name: "ChatEmpty", schema: validate.ChatMessage, body: `{"message":""}`},
		{name: "BroadcastValid", schema: validate.Broadcast, body: `{"message":"maintenance tonight"}`, ok: true},
		{name: "SkillMissingName", schema: validate.Skill, body: `{"category":"Music"}`},
		{name: "Malformed", schema: validate.Skill, body: `{"name":`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := v.Check(ctx, c.schema, []byte(c.body))
			if c.ok {
				if err != nil {
					t.Fatalf("expected valid body, got %v", err)
				}
				return
			}
			if apperr.KindOf(err) != apperr.KindValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCheckUnknownSchema(t *testing.T) {
	v, err := validate.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := v.Check(context.Background(), "nope", []byte(`{}`)); apperr.KindOf(err) != apperr.KindUnexpected {
		t.Fatalf("expected unexpected error for unknown schema, got %v", err)
	}
}
