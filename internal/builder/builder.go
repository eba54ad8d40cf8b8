package builder

import (
	"fmt"

	"redpaper/pkg/compile"
)

// ConverterArgs builds the pandoc command line run inside the container.
// The fixed flags come first, then req.PandocArgs, then req.ExtraArgs; neither
// list is inspected or reordered.
func ConverterArgs(req compile.Request, plan compile.MountPlan) []string {
	args := []string{
		compile.ConverterProgram,
		fmt.Sprintf("--dpi=%d", req.DPI),
		fmt.Sprintf("--pdf-engine=%s", req.Engine),
		fmt.Sprintf("--template=%s", plan.ContainerTemplate),
		"-i", plan.ContainerInput,
		"-o", plan.ContainerOutput,
	}

	args = append(args, req.PandocArgs...)
	args = append(args, req.ExtraArgs...)
	return args
}

// ContainerArgs wraps converter in a "<tool> run --rm" invocation with one -v per mount.
func ContainerArgs(tool, image string, plan compile.MountPlan, converter []string) []string {
	mounts := plan.Mounts()

	args := make([]string, 0, 3+2*len(mounts)+1+len(converter))
	args = append(args, tool, "run", "--rm")
	for _, m := range mounts {
		args = append(args, "-v", m.Arg())
	}
	args = append(args, image)
	return append(args, converter...)
}
