package pod_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/opst/datapod/pkg/cmp"
	"github.com/opst/datapod/pkg/configs/pod"
	"github.com/opst/datapod/pkg/utils/try"
)

func TestLoad(t *testing.T) {
	type When struct {
		content string
	}
	type Then struct {
		err        error
		want       pod.Config
		s3         map[string]string
		relativeTo bool
	}

	no := false

	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			dir := t.TempDir()
			file := filepath.Join(dir, "datapod.yaml")
			if err := os.WriteFile(file, []byte(when.content), 0644); err != nil {
				t.Fatal(err)
			}

			got, err := pod.Load(file)
			if !errors.Is(err, then.err) {
				t.Fatalf("want %v, but got %v", then.err, err)
			}
			if err != nil {
				return
			}

			want := then.want
			if then.relativeTo {
				if want.Ingredients != "" {
					want.Ingredients = filepath.Join(dir, want.Ingredients)
				}
				if want.FullCourse != "" {
					want.FullCourse = filepath.Join(dir, want.FullCourse)
				}
			}
			if got.Ingredients != want.Ingredients || got.FullCourse != want.FullCourse {
				t.Errorf("manifests: want (%s, %s), got (%s, %s)",
					want.Ingredients, want.FullCourse, got.Ingredients, got.FullCourse)
			}
			if got.Server != want.Server {
				t.Errorf("server: want %+v, got %+v", want.Server, got.Server)
			}
			if !cmp.MapEq(map[string]string(got.Storage.S3.Options()), then.s3) {
				t.Errorf("s3 options: want %v, got %v", then.s3, got.Storage.S3.Options())
			}
		}
	}

	t.Run("full", theory(
		When{content: `
ingredients: ./ingredients.yaml
full_course: out/full_course.yaml
storage:
  s3:
    endpoint: minio:9000
    region: us-east-1
    secure: false
server:
  port: 9090
  loglevel: DEBUG
`},
		Then{
			want: pod.Config{
				Ingredients: "ingredients.yaml",
				FullCourse:  "out/full_course.yaml",
				Server:      pod.Server{Port: 9090, LogLevel: "debug"},
				Storage:     pod.Storage{S3: pod.S3{Secure: &no}},
			},
			s3:         map[string]string{"endpoint": "minio:9000", "region": "us-east-1", "secure": "false"},
			relativeTo: true,
		},
	))

	t.Run("defaults", theory(
		When{content: "ingredients: /etc/datapod/ingredients.yaml\n"},
		Then{
			want: pod.Config{
				Ingredients: "/etc/datapod/ingredients.yaml",
				Server:      pod.Server{Port: pod.DefaultPort, LogLevel: pod.DefaultLogLevel},
			},
			s3: map[string]string{},
		},
	))

	t.Run("server without port", theory(
		When{content: "full_course: fc.yaml\nserver:\n  loglevel: warn\n"},
		Then{
			want: pod.Config{
				FullCourse: "fc.yaml",
				Server:     pod.Server{Port: pod.DefaultPort, LogLevel: "warn"},
			},
			s3:         map[string]string{},
			relativeTo: true,
		},
	))

	t.Run("no manifest", theory(
		When{content: "server:\n  port: 8080\n"},
		Then{err: pod.ErrNoManifest},
	))
	t.Run("empty file", theory(When{content: ""}, Then{err: pod.ErrNoManifest}))
	t.Run("port out of range", theory(
		When{content: "ingredients: a.yaml\nserver:\n  port: 70000\n"},
		Then{err: pod.ErrInvalidPort},
	))
	t.Run("unknown loglevel", theory(
		When{content: "ingredients: a.yaml\nserver:\n  loglevel: verbose\n"},
		Then{err: pod.ErrInvalidLogLevel},
	))
	t.Run("endpoint as url", theory(
		When{content: "ingredients: a.yaml\nstorage:\n  s3:\n    endpoint: https://minio:9000\n"},
		Then{err: pod.ErrInvalidEndpoint},
	))
}

func TestLoad_Missing(t *testing.T) {
	_, err := pod.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestConfig_Files(t *testing.T) {
	cfg := try.To(func() (pod.Config, error) {
		dir := t.TempDir()
		file := filepath.Join(dir, "datapod.yaml")
		if err := os.WriteFile(file, []byte("full_course: fc.yaml\n"), 0644); err != nil {
			return pod.Config{}, err
		}
		return pod.Load(file)
	}()).OrFatal(t)

	files := cfg.Files()
	if len(files) != 1 || filepath.Base(files[0]) != "fc.yaml" {
		t.Errorf("unexpected files: %v", files)
	}
}
