package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLaunchArguments(t *testing.T) {
	raw := []byte(`{
		"executable": "/usr/bin/lua",
		"arguments": ["main.lua", "-v"],
		"workingDirectory": "/proj",
		"listenPublicly": true,
		"listenPort": 9000
	}`)

	args, err := ParseLaunchArguments(raw)
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/lua", args.Executable)
	assert.Equal(t, []string{"main.lua", "-v"}, args.Arguments)
	assert.Equal(t, "/proj", args.WorkingDirectory)
	assert.True(t, args.ListenPublicly)
	assert.Equal(t, 9000, args.ListenPort)
}

func TestParseLaunchArgumentsEmpty(t *testing.T) {
	args, err := ParseLaunchArguments(nil)
	require.NoError(t, err)
	assert.Empty(t, args.Executable)
}

func TestParseLaunchArgumentsMalformed(t *testing.T) {
	_, err := ParseLaunchArguments([]byte(`{"executable": 42}`))
	assert.Error(t, err)
}

func TestResolvedWorkingDirectoryPrefersNewSpelling(t *testing.T) {
	args := &LaunchArguments{WorkingDirectory: "/a", Cwd: "/b"}
	assert.Equal(t, "/a", args.ResolvedWorkingDirectory())

	args = &LaunchArguments{Cwd: "/b"}
	assert.Equal(t, "/b", args.ResolvedWorkingDirectory())
}

func TestResolvedListenPortFallback(t *testing.T) {
	settings := DefaultSettings()

	args := &LaunchArguments{ListenPort: 9000}
	assert.Equal(t, 9000, args.ResolvedListenPort(settings))

	args = &LaunchArguments{}
	assert.Equal(t, settings.DebuggeePort, args.ResolvedListenPort(settings))
}

func TestIsProjectLaunch(t *testing.T) {
	assert.True(t, (&LaunchArguments{GprojPath: "game.gproj"}).IsProjectLaunch())
	assert.False(t, (&LaunchArguments{Executable: "/bin/lua", GprojPath: "game.gproj"}).IsProjectLaunch())
	assert.False(t, (&LaunchArguments{}).IsProjectLaunch())
}

func TestValidateWorkingDirectory(t *testing.T) {
	dir := t.TempDir()

	args := &LaunchArguments{Cwd: dir}
	assert.Nil(t, args.ValidateWorkingDirectory())

	args = &LaunchArguments{Cwd: "   "}
	info := args.ValidateWorkingDirectory()
	require.NotNil(t, info)
	assert.Equal(t, 3003, info.ID)

	args = &LaunchArguments{Cwd: filepath.Join(dir, "gone")}
	info = args.ValidateWorkingDirectory()
	require.NotNil(t, info)
	assert.Equal(t, 3004, info.ID)
	assert.Contains(t, info.Render(), "gone")

	// A plain file is not a usable working directory.
	file := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	args = &LaunchArguments{Cwd: file}
	info = args.ValidateWorkingDirectory()
	require.NotNil(t, info)
	assert.Equal(t, 3004, info.ID)
}

func TestValidateExecutable(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "debuggee")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755))

	args := &LaunchArguments{Executable: bin}
	assert.Nil(t, args.ValidateExecutable())

	args = &LaunchArguments{Executable: ""}
	info := args.ValidateExecutable()
	require.NotNil(t, info)
	assert.Equal(t, 3005, info.ID)

	args = &LaunchArguments{Executable: filepath.Join(dir, "missing")}
	info = args.ValidateExecutable()
	require.NotNil(t, info)
	assert.Equal(t, 3006, info.ID)
	assert.Contains(t, info.Render(), "missing")
}
