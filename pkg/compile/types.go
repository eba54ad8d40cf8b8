package compile

// Fixed container layout expected by the redpaper_host image.
const (
	ProjectMountPoint    = "/prj"
	RepositoryMountPoint = "/data"
	ScratchMountPoint    = "/tmp"

	// TemplatesDir is the directory inside the template repository holding the LaTeX templates.
	TemplatesDir = "templates"

	// ConverterProgram is the converter invoked inside the container.
	ConverterProgram = "pandoc"

	DefaultImage    = "redthing1/redpaper_host"
	DefaultTemplate = "style2/style2-single.tex"
	DefaultDPI      = 300
	DefaultEngine   = "lualatex"
)

// RuntimeChoice names the container execution tool.
type RuntimeChoice string

const (
	RuntimeDocker RuntimeChoice = "docker"
	RuntimePodman RuntimeChoice = "podman"
	RuntimeAuto   RuntimeChoice = "auto"
)

// Request describes a single Markdown to PDF compilation.
// It is built once per invocation from command-line flags, environment and config file.
type Request struct {
	InputPath      string        `flag:"input" validate:"required"`
	OutputPath     string        `flag:"output" validate:"required"`
	RepositoryPath string        `flag:"redpaper-path" validate:"required"`
	Template       string        `flag:"template" validate:"required"`
	DPI            int           `flag:"dpi" validate:"gt=0"`
	Engine         string        `flag:"engine" validate:"required"`
	ContainerTool  RuntimeChoice `flag:"container-tool" validate:"required,oneof=docker podman auto"`
	Image          string        `flag:"image" validate:"required"`

	// PandocArgs are appended to the converter command after the fixed flags.
	PandocArgs []string
	// ExtraArgs are appended last, exactly as given.
	ExtraArgs []string

	DryRun bool
}

// Mount is a single host directory to container path bind mount.
type Mount struct {
	HostPath      string
	ContainerPath string
}

// Arg renders the mount in the host:container form accepted by docker and podman.
func (m Mount) Arg() string {
	return m.HostPath + ":" + m.ContainerPath
}

// MountPlan holds the bind mounts for one compilation and the paths the converter sees.
type MountPlan struct {
	Project    Mount
	Repository Mount
	Scratch    Mount

	ContainerInput    string
	ContainerTemplate string
	ContainerOutput   string

	// HostArtifact is where ContainerOutput appears on the host once the converter exits.
	HostArtifact string
}

// Mounts returns the mounts in the order they are passed to the runtime.
func (p MountPlan) Mounts() []Mount {
	return []Mount{p.Project, p.Repository, p.Scratch}
}
