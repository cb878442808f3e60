package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// IntegrationTestSpec represents a single integration test case
type IntegrationTestSpec struct {
	Name         string            `yaml:"name"`
	Input        string            `yaml:"input"`
	Args         []string          `yaml:"args"`
	Files        map[string]string `yaml:"files"`
	Expect       []string          `yaml:"expect"`        // Strings that must appear in output
	ExpectOrder  []string          `yaml:"expect_order"`  // Strings that must appear in this order
	ExpectNot    []string          `yaml:"expect_not"`    // Strings that must NOT appear in output
	ExpectStderr []string          `yaml:"expect_stderr"` // Strings that must appear on stderr
	Skip         string            `yaml:"skip,omitempty"`
}

// IntegrationTestFile represents the integration.yaml file structure
type IntegrationTestFile struct {
	Tests []IntegrationTestSpec `yaml:"tests"`
}

func TestIntegrationYAML(t *testing.T) {
	data, err := os.ReadFile("../../testdata/integration.yaml")
	if err != nil {
		t.Fatalf("integration.yaml not found: %v", err)
	}

	var testFile IntegrationTestFile
	if err := yaml.Unmarshal(data, &testFile); err != nil {
		t.Fatalf("failed to parse integration.yaml: %v", err)
	}

	for _, tc := range testFile.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			if tc.Skip != "" {
				t.Skip(tc.Skip)
			}

			tmpDir := t.TempDir()
			for name, content := range tc.Files {
				path := filepath.Join(tmpDir, name)
				if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
					t.Fatal(err)
				}
				if err := os.WriteFile(path, []byte(content), 0644); err != nil {
					t.Fatal(err)
				}
			}
			if err := os.WriteFile(filepath.Join(tmpDir, "top.v"), []byte(tc.Input), 0644); err != nil {
				t.Fatalf("failed to write test file: %v", err)
			}
			chdir(t, tmpDir)

			resetFlags()
			var out, errOut bytes.Buffer
			cmd := newRootCmd(&out, &errOut)
			args := append(normalizeFlags(tc.Args), "-E", "top.v")
			cmd.SetArgs(args)
			if err := cmd.Execute(); err != nil {
				t.Fatalf("vpp failed: %v\nstderr: %s", err, errOut.String())
			}

			output := out.String()
			for _, exp := range tc.Expect {
				if !strings.Contains(output, exp) {
					t.Errorf("expected output to contain %q\nGot:\n%s", exp, output)
				}
			}
			for _, notExp := range tc.ExpectNot {
				if strings.Contains(output, notExp) {
					t.Errorf("expected output NOT to contain %q\nGot:\n%s", notExp, output)
				}
			}
			lastIdx := -1
			for _, exp := range tc.ExpectOrder {
				idx := strings.Index(output, exp)
				if idx < 0 {
					t.Errorf("expected output to contain %q\nGot:\n%s", exp, output)
					continue
				}
				if idx <= lastIdx {
					t.Errorf("expected %q to appear after previous pattern\nGot:\n%s", exp, output)
				}
				lastIdx = idx
			}
			for _, exp := range tc.ExpectStderr {
				if !strings.Contains(errOut.String(), exp) {
					t.Errorf("expected stderr to contain %q\nGot:\n%s", exp, errOut.String())
				}
			}
		})
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent to testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
