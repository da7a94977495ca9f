package domain

// JarDir is the default install directory of jars, relative to the prefix.
const JarDir = "share/java"

// DefaultInstallDir returns the install directory a target of t's kind uses
// when install_dir is not given. Custom and run targets have none.
func (b *Build) DefaultInstallDir(t Target) string {
	switch t.Kind() {
	case KindExecutable:
		return b.env.BinDir()
	case KindStaticLibrary:
		return b.env.StaticLibDir()
	case KindSharedLibrary:
		return b.env.SharedLibDir(t.Base().ForMachine)
	case KindSharedModule:
		return b.env.SharedModuleDir()
	case KindJar:
		return JarDir
	}
	return ""
}

// CustomInstallDir returns the install_dir entries of t as given.
func CustomInstallDir(t Target) []InstallDir {
	switch v := t.(type) {
	case *CustomTarget:
		return v.InstallDirs
	case *CustomTargetIndex:
		return v.Parent.InstallDirs
	}
	if bt, ok := AsBuildTarget(t); ok {
		return bt.InstallDirs
	}
	return nil
}

// InstallDirs resolves the install directories of t. The first entry
// falls back to the kind default when it is empty. custom reports whether
// the first directory differs from that default.
func (b *Build) InstallDirs(t Target) (dirs []InstallDir, custom bool) {
	def := b.DefaultInstallDir(t)
	dirs = append([]InstallDir(nil), CustomInstallDir(t)...)
	if len(dirs) == 0 {
		if def == "" {
			return nil, false
		}
		return []InstallDir{{Path: def}}, false
	}
	first := dirs[0]
	if !first.Disabled && first.Path != "" && first.Path != def {
		return dirs, true
	}
	if !first.Disabled {
		dirs[0].Path = def
	}
	return dirs, false
}

// OutputInstallDir returns the install directory of the i-th output of a
// custom target. Outputs beyond the install_dir list use the first entry.
func (b *Build) OutputInstallDir(c *CustomTarget, i int) (InstallDir, bool) {
	if !c.Install || len(c.InstallDirs) == 0 {
		return InstallDir{}, false
	}
	if i >= 0 && i < len(c.InstallDirs) {
		return c.InstallDirs[i], true
	}
	return c.InstallDirs[0], true
}
