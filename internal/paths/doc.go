// Provides platform-appropriate paths for installed bundles.
//
// All paths follow XDG conventions on Linux and platform-native conventions
// on macOS and Windows. The tool name "mcpb" is used as the subdirectory
// under each base path. The staging root is deliberately placed next to the
// installs root so that commits can rely on same-filesystem renames.
package paths
