// Package planner maps host paths of a compile request onto the fixed container layout.
package planner

import (
	"path"
	"path/filepath"

	"redpaper/pkg/compile"
)

// Plan computes the bind mounts and in-container paths for req.
// req must already be resolved to absolute paths. scratchDir is the host
// directory that receives the converter output.
//
// The directory containing the input is mounted, not the file itself, so the
// converter can resolve images and includes referenced relative to the document.
// Container paths always use forward slashes.
func Plan(req compile.Request, scratchDir string) compile.MountPlan {
	inputDir := filepath.Dir(req.InputPath)
	inputName := filepath.Base(req.InputPath)
	outputName := filepath.Base(req.OutputPath)

	return compile.MountPlan{
		Project: compile.Mount{
			HostPath:      inputDir,
			ContainerPath: compile.ProjectMountPoint,
		},
		Repository: compile.Mount{
			HostPath:      req.RepositoryPath,
			ContainerPath: compile.RepositoryMountPoint,
		},
		Scratch: compile.Mount{
			HostPath:      scratchDir,
			ContainerPath: compile.ScratchMountPoint,
		},

		ContainerInput:    path.Join(compile.ProjectMountPoint, inputName),
		ContainerTemplate: path.Join(compile.RepositoryMountPoint, compile.TemplatesDir, filepath.ToSlash(req.Template)),
		ContainerOutput:   path.Join(compile.ScratchMountPoint, outputName),

		HostArtifact: filepath.Join(scratchDir, outputName),
	}
}
