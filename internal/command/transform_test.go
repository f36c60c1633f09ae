package command

import "testing"

func TestParseSplitsOnDoubleAmpersand(t *testing.T) {
	cmd, err := Parse("echo hi && echo bye")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(cmd.Subcommands) != 2 {
		t.Fatalf("len(Subcommands) = %d, want 2", len(cmd.Subcommands))
	}
	for i, want := range []string{"echo hi", "echo bye"} {
		sub := cmd.Subcommands[i]
		if sub.Type != System || sub.AllowedToFail {
			t.Errorf("Subcommands[%d] = %+v, want plain system subcommand", i, sub)
		}
		if len(sub.System) != 1 || sub.System[0] != want {
			t.Errorf("Subcommands[%d].System = %v, want [%q]", i, sub.System, want)
		}
	}
}

func TestParseRecognisesAllowedToFailMarker(t *testing.T) {
	cmd, err := Parse("! rm -f maybe-missing")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	sub := cmd.Subcommands[0]
	if !sub.AllowedToFail {
		t.Error("expected AllowedToFail = true")
	}
	if sub.System[0] != "rm -f maybe-missing" {
		t.Errorf("System = %v", sub.System)
	}
}

func TestParseRecognisesLimarMarkerAndJQTransform(t *testing.T) {
	cmd, err := Parse("- cache.delete(q.*) : .")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	sub := cmd.Subcommands[0]
	if sub.Type != Limar {
		t.Fatalf("Type = %q, want %q", sub.Type, Limar)
	}
	if sub.LimarModule != "cache" || sub.LimarMethod != "delete" {
		t.Errorf("LimarModule/Method = %q/%q, want cache/delete", sub.LimarModule, sub.LimarMethod)
	}
	if sub.HasPQ {
		t.Error("expected JQ transform, not PQ")
	}
	if sub.JQTransform != "." {
		t.Errorf("JQTransform = %q, want %q", sub.JQTransform, ".")
	}
	if len(sub.LimarArgs) != 1 {
		t.Fatalf("LimarArgs = %v, want one argument", sub.LimarArgs)
	}
}

func TestParseInterpolatesSubquery(t *testing.T) {
	cmd, err := Parse(`echo {{ manifest.project(x) : .ref }}`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	sub := cmd.Subcommands[0]
	if len(sub.System) != 2 {
		t.Fatalf("System = %v, want [literal, *Param]", sub.System)
	}
	if sub.System[0] != "echo " {
		t.Errorf("System[0] = %q, want %q", sub.System[0], "echo ")
	}
	param, ok := sub.System[1].(*Param)
	if !ok {
		t.Fatalf("System[1] = %T, want *Param", sub.System[1])
	}
	if param.Module != "manifest" || param.Method != "project" {
		t.Errorf("param module/method = %q/%q, want manifest/project", param.Module, param.Method)
	}
	if param.JQTransform != ".ref" {
		t.Errorf("param.JQTransform = %q, want %q", param.JQTransform, ".ref")
	}
	if len(sub.Parameters) != 1 {
		t.Errorf("len(sub.Parameters) = %d, want 1", len(sub.Parameters))
	}
}
