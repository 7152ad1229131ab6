package banner

import (
	"fmt"
)

const banner = `
██╗   ██╗ █████╗  ██████╗ ███████╗███╗   ██╗████████╗██████╗
██║   ██║██╔══██╗██╔════╝ ██╔════╝████╗  ██║╚══██╔══╝██╔══██╗
██║   ██║███████║██║  ███╗█████╗  ██╔██╗ ██║   ██║   ██║  ██║
╚██╗ ██╔╝██╔══██║██║   ██║██╔══╝  ██║╚██╗██║   ██║   ██║  ██║
 ╚████╔╝ ██║  ██║╚██████╔╝███████╗██║ ╚████║   ██║   ██████╔╝
  ╚═══╝  ╚═╝  ╚═╝ ╚═════╝ ╚══════╝╚═╝  ╚═══╝   ╚═╝   ╚═════╝
`

// Print writes the startup banner with the effective listen address, store
// path and build version.
func Print(addr, dbPath, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("DB Path:  %s\n", dbPath)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("GET  /projects/get-project/{id}  - project roster + file tree")
	fmt.Println("PUT  /projects/add-user          - invite participants")
	fmt.Println("PUT  /projects/update-file-tree  - save the full file tree")
	fmt.Println("GET  /ws/projects/{id}           - attach to the project room")
	fmt.Println("GET  /metrics                    - Prometheus metrics")
}
