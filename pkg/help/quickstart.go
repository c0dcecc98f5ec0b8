package help

const QuickstartYAML = `# lwc Quick Start

commands:
  standalone: |
    lwc count --dir textos --threads 8

  local_cluster: |
    lwc run --procs 4 -- --dir textos --threads 2

  preview_assignment: |
    lwc list --dir textos --size 4

  manual_ranks: |
    # one shell per rank, rank 0 hosts the coordinator
    lwc count --size 3 --rank 0 --coordinator 10.0.0.1:7070 --job nightly
    lwc count --size 3 --rank 1 --coordinator 10.0.0.1:7070 --job nightly
    lwc count --size 3 --rank 2 --coordinator 10.0.0.1:7070 --job nightly

  machine_readable: |
    lwc count --format yaml --quiet --progress=false

config_file:
  flag: "--config lwc.yaml (flags override the file, the file overrides defaults)"
  keys:
    dir: "textos"
    suffix: ".log"
    threads: "number of CPUs"
    max_line_bytes: 1000
    delimiters: "space, tab, newline and . , ; : ! ? \" ( )"
    format: "text | json | yaml"
    progress: true

environment:
  LWC_RANK: "rank of this process (set by lwc run)"
  LWC_SIZE: "processes in the group"
  LWC_COORDINATOR: "host:port of rank 0"
  LWC_JOB: "job id; ranks with another id are rejected"

invariants:
  - "File i is counted by rank i mod size"
  - "Every rank must see the same file list or all ranks fail"
  - "Every rank must be started with the same --size or all ranks fail"
  - "Only rank 0 prints the global summary"
  - "The global total does not depend on --procs or --threads"
  - "Unreadable files count as zero and do not stop the run"
  - "Lines longer than max_line_bytes are cut and reported"

error_behavior:
  - "Exit codes: 0=success, 1=directory unreadable or no files, 2=config or cluster failure"
  - "lwc run exits with the highest exit code of its ranks"
`
